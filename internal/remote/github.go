package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// GitHubClient implements Client against the GitHub contents REST API.
// Blob version tokens are content SHAs; conditional reads use ETags.
type GitHubClient struct {
	BaseURL        string // default https://api.github.com
	Repo           string // owner/name
	Branch         string
	Token          string
	CommitterName  string
	CommitterEmail string

	// MaxRetries bounds the exponential backoff on 429/5xx. Zero means
	// the default of 3 attempts after the first.
	MaxRetries uint64

	HTTPClient *http.Client
}

const (
	defaultBaseURL    = "https://api.github.com"
	defaultMaxRetries = 3
	apiVersion        = "2022-11-28"
	requestTimeout    = 30 * time.Second
)

func (c *GitHubClient) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *GitHubClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: requestTimeout}
}

func (c *GitHubClient) retries() uint64 {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return defaultMaxRetries
}

func (c *GitHubClient) newRequest(ctx context.Context, method, rawURL string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do runs fn with exponential backoff plus jitter on transient statuses.
// Non-transient failures abort immediately.
func (c *GitHubClient) do(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 5 * time.Second
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries()), ctx))
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

// Get fetches a file through the contents API. Supplying the previously
// seen ETag avoids re-downloading unchanged content.
func (c *GitHubClient) Get(ctx context.Context, path, etag string) (*Content, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s",
		c.base(), c.Repo, path, url.QueryEscape(c.Branch))

	var out *Content
	err := c.do(ctx, func() error {
		req, err := c.newRequest(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			// Network-level failures (timeouts, resets) are transient.
			return &APIError{Op: "get " + path, Status: 599, Body: err.Error()}
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			var cr contentsResponse
			if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
				return backoff.Permanent(fmt.Errorf("remote: decode contents: %w", err))
			}
			raw, err := base64.StdEncoding.DecodeString(stripNewlines(cr.Content))
			if err != nil {
				return backoff.Permanent(fmt.Errorf("remote: decode base64 content: %w", err))
			}
			out = &Content{Bytes: raw, SHA: cr.SHA, ETag: resp.Header.Get("ETag")}
			return nil
		case http.StatusNotModified:
			return backoff.Permanent(ErrNotModified)
		case http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &APIError{Op: "get " + path, Status: resp.StatusCode, Body: string(body)}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type putRequest struct {
	Message   string     `json:"message"`
	Content   string     `json:"content"`
	Branch    string     `json:"branch"`
	SHA       string     `json:"sha,omitempty"`
	Committer *committer `json:"committer,omitempty"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// Put writes a file through the contents API. expectedSHA is the
// optimistic-concurrency precondition: the API rejects the write with 409
// (or 422 on sha mismatch) when the blob changed underneath us.
func (c *GitHubClient) Put(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", c.base(), c.Repo, path)
	body := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.Branch,
		SHA:     expectedSHA,
	}
	if c.CommitterName != "" && c.CommitterEmail != "" {
		body.Committer = &committer{Name: c.CommitterName, Email: c.CommitterEmail}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("remote: marshal put: %w", err)
	}

	var newSHA string
	err = c.do(ctx, func() error {
		req, err := c.newRequest(ctx, http.MethodPut, u, payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			return &APIError{Op: "put " + path, Status: 599, Body: err.Error()}
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			var pr putResponse
			if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
				return backoff.Permanent(fmt.Errorf("remote: decode put response: %w", err))
			}
			newSHA = pr.Content.SHA
			return nil
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return backoff.Permanent(ErrConflict)
		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &APIError{Op: "put " + path, Status: resp.StatusCode, Body: string(b)}
		}
	})
	if err != nil {
		return "", err
	}
	return newSHA, nil
}

// RateLimit returns the remaining and total core request quota, for the
// admin healthcheck.
func (c *GitHubClient) RateLimit(ctx context.Context) (remaining, limit int, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.base()+"/rate_limit", nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("remote: rate limit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, &APIError{Op: "rate_limit", Status: resp.StatusCode}
	}
	var rl struct {
		Resources struct {
			Core struct {
				Remaining int `json:"remaining"`
				Limit     int `json:"limit"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rl); err != nil {
		return 0, 0, fmt.Errorf("remote: decode rate limit: %w", err)
	}
	return rl.Resources.Core.Remaining, rl.Resources.Core.Limit, nil
}

// TokenScopes returns the OAuth scopes granted to the configured token.
func (c *GitHubClient) TokenScopes(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.base()+"/user", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("remote: token scopes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Op: "user", Status: resp.StatusCode}
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Header.Get("X-OAuth-Scopes"), nil
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
