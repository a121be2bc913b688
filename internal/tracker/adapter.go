// Package tracker is the sync adapter: it orchestrates reading the ledger
// from remote or local storage, merging new submissions, and writing the
// result back with optimistic concurrency, degrading to the local cache
// and a pending queue when the remote store misbehaves.
//
// The adapter is synchronous by design. Each user interaction is one
// load-merge-save cycle; concurrent writers are handled by the storage
// layer's version tokens plus last-write-wins merging, never by locks.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dvidovic/lokator/internal/merge"
	"github.com/dvidovic/lokator/internal/record"
	"github.com/dvidovic/lokator/internal/remote"
	"github.com/dvidovic/lokator/internal/store"
)

// Origin says where a loaded ledger came from.
type Origin string

const (
	// OriginRemote: fresh content from the remote store.
	OriginRemote Origin = "remote"
	// OriginCache: the local fallback mirror, used on not-modified reads
	// and on degraded paths.
	OriginCache Origin = "cache"
	// OriginEmpty: first-ever run, remote explicitly reported not found.
	OriginEmpty Origin = "empty"
)

// Status is the adapter's observable state. Any degraded condition the
// surrounding UI should surface lives here, never in swallowed errors.
type Status struct {
	Origin       Origin
	Degraded     bool
	Notice       string
	PendingCount int
	LastSync     time.Time
	VersionToken string
}

// LoadResult is a loaded ledger plus the version token to use as the
// write precondition.
type LoadResult struct {
	Ledger []record.Record
	SHA    string
	Origin Origin
}

// Adapter wires the merge engine to remote and local storage.
//
// Remote may be nil, which puts the adapter in local-only mode. The Clock
// is injectable for deterministic tests. Not safe for concurrent use; the
// system is single-threaded request/response by design.
type Adapter struct {
	Remote      remote.Client
	RemotePath  string
	Separator   rune
	CachePath   string
	PendingPath string

	// TrimCleared prunes empty-location rows before persistence. Policy
	// flag; the merge itself always retains cleared rows.
	TrimCleared bool

	Clock func() time.Time
	Log   *zap.SugaredLogger

	etag   string
	sha    string
	status Status
}

func (a *Adapter) log() *zap.SugaredLogger {
	if a.Log != nil {
		return a.Log
	}
	return zap.NewNop().Sugar()
}

func (a *Adapter) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

func (a *Adapter) sep() rune {
	if a.Separator != 0 {
		return a.Separator
	}
	return store.DefaultSeparator
}

// Status returns the adapter's current observable state, including the
// pending queue depth.
func (a *Adapter) Status() Status {
	s := a.status
	s.VersionToken = a.sha
	if pend, err := store.ReadPending(a.PendingPath, a.sep()); err == nil {
		s.PendingCount = len(pend)
	}
	return s
}

// Load fetches the current ledger.
//
// Remote reads are conditional on the last seen ETag. Not-modified and
// degraded paths fall back to the local cache; an explicit not-found is
// the legitimate first-run empty ledger. Fetched content is normalized
// through the merge engine and mirrored to the cache best-effort. On a
// fatal remote error the cached ledger is still returned alongside the
// error so read paths stay usable.
func (a *Adapter) Load(ctx context.Context) (*LoadResult, error) {
	if a.Remote == nil {
		res := a.loadCache()
		a.setStatus(res.Origin, false, "local-only mode")
		return res, nil
	}

	content, err := a.Remote.Get(ctx, a.RemotePath, a.etag)
	switch {
	case err == nil:
		ledger, derr := store.DecodeLedger(content.Bytes, a.sep())
		if derr != nil {
			return nil, &SyncError{Code: ErrCodeParse, Message: "remote ledger is undecodable", Path: a.RemotePath, Err: derr}
		}
		stamper := merge.Stamper{Now: a.now}
		ledger = merge.Merge(nil, stamper.Stamp(ledger, "remote"))
		a.etag = content.ETag
		a.sha = content.SHA
		a.writeCache(ledger)
		a.setStatus(OriginRemote, false, "")
		return &LoadResult{Ledger: ledger, SHA: content.SHA, Origin: OriginRemote}, nil

	case errors.Is(err, remote.ErrNotModified):
		res := a.loadCache()
		res.SHA = a.sha
		a.setStatus(res.Origin, false, "")
		return res, nil

	case errors.Is(err, remote.ErrNotFound):
		// First-ever run. Distinguished explicitly: the adapter must not
		// fabricate an empty ledger on transport failures.
		a.etag, a.sha = "", ""
		a.setStatus(OriginEmpty, false, "remote ledger does not exist yet")
		return &LoadResult{Origin: OriginEmpty}, nil

	case remote.IsTransient(err):
		a.log().Warnw("remote unreachable, serving local cache", "path", a.RemotePath, "error", err)
		res := a.loadCache()
		a.setStatus(res.Origin, true, "remote unreachable; showing last local copy")
		return res, nil

	default:
		// Fatal: surface, but still hand read paths the cached copy.
		res := a.loadCache()
		a.setStatus(res.Origin, true, "remote rejected the request")
		return res, &SyncError{Code: ErrCodeFatal, Message: "remote read failed", Path: a.RemotePath, Err: err}
	}
}

// Save stamps a batch of new rows, merges it against the freshly loaded
// ledger, persists locally, then pushes remotely with the version token
// as precondition.
//
// A stale-token conflict triggers exactly one re-fetch/re-merge/retry; a
// second conflict, or exhausted transient retries, queues the batch in
// the pending file for later replay. The local cache is written before
// any remote attempt so local state survives every remote failure.
func (a *Adapter) Save(ctx context.Context, newRows []record.Record, source string) ([]record.Record, error) {
	stamper := merge.Stamper{Now: a.now}
	batch := stamper.Stamp(newRows, source)

	loaded, err := a.Load(ctx)
	if err != nil && loaded == nil {
		return nil, err
	}
	merged := merge.Merge(loaded.Ledger, batch)
	persisted := merged
	if a.TrimCleared {
		persisted = merge.TrimCleared(merged)
	}

	if err := store.WriteLedgerFile(a.CachePath, persisted, a.sep()); err != nil {
		// Losing the mirror is survivable; losing the remote push is not.
		a.log().Warnw("cache write failed", "path", a.CachePath, "error", err)
	}

	if a.Remote == nil {
		a.setStatus(OriginCache, false, "saved locally (local-only mode)")
		return persisted, nil
	}

	pushErr := a.push(ctx, persisted, loaded.SHA)
	if pushErr == nil {
		a.status.LastSync = a.now()
		a.setStatus(OriginRemote, false, "")
		return persisted, nil
	}

	if errors.Is(pushErr, remote.ErrConflict) {
		// Someone else wrote concurrently. Re-fetch the fresh state,
		// re-merge our batch on top, retry the push once.
		a.etag = "" // force an unconditional fetch
		fresh, lerr := a.Load(ctx)
		if lerr == nil {
			merged = merge.Merge(fresh.Ledger, batch)
			persisted = merged
			if a.TrimCleared {
				persisted = merge.TrimCleared(merged)
			}
			if err := store.WriteLedgerFile(a.CachePath, persisted, a.sep()); err != nil {
				a.log().Warnw("cache write failed", "path", a.CachePath, "error", err)
			}
			if err := a.push(ctx, persisted, fresh.SHA); err == nil {
				a.status.LastSync = a.now()
				a.setStatus(OriginRemote, false, "")
				return persisted, nil
			} else {
				pushErr = err
			}
		}
	}

	// The batch did not reach the remote store. Queue it; record ids make
	// replay idempotent, so at-least-once is safe.
	if qerr := store.AppendPending(a.PendingPath, batch, a.sep()); qerr != nil {
		a.log().Errorw("pending queue write failed", "path", a.PendingPath, "error", qerr)
	}
	a.setStatus(OriginCache, true, "remote write failed; batch queued for retry")

	code := ErrCodeTransient
	msg := "remote unreachable; batch queued"
	switch {
	case errors.Is(pushErr, remote.ErrConflict):
		code = ErrCodeConflict
		msg = "concurrent remote write; batch queued"
	case remote.IsFatal(pushErr):
		code = ErrCodeFatal
		msg = "remote rejected the write; batch queued"
	}
	return persisted, &SyncError{Code: code, Message: msg, Path: a.RemotePath, Err: pushErr}
}

func (a *Adapter) push(ctx context.Context, ledger []record.Record, expectedSHA string) error {
	b, err := store.EncodeLedger(ledger, a.sep())
	if err != nil {
		return &SyncError{Code: ErrCodeParse, Message: "encode ledger", Path: a.RemotePath, Err: err}
	}
	msg := fmt.Sprintf("Update %s (desc, last-wins, canonical)", a.RemotePath)
	sha, err := a.Remote.Put(ctx, a.RemotePath, b, msg, expectedSHA)
	if err != nil {
		return err
	}
	a.sha = sha
	a.etag = "" // ETag is stale after our own write
	return nil
}

// SyncPending replays the queued batches through the normal save path.
// Replaying is idempotent: queued rows carry their record ids, so
// reapplying an already-synced batch is a no-op in the merge.
//
// The queue is emptied before the replay, not after: a failed Save
// re-queues exactly the batch it carried, so the queue stays the same
// size across repeated failed replays instead of concatenating itself
// onto its own contents each round.
func (a *Adapter) SyncPending(ctx context.Context) (int, error) {
	pend, err := store.ReadPending(a.PendingPath, a.sep())
	if err != nil {
		return 0, fmt.Errorf("tracker: read pending queue: %w", err)
	}
	if len(pend) == 0 {
		return 0, nil
	}
	if err := store.ClearPending(a.PendingPath); err != nil {
		return 0, fmt.Errorf("tracker: reset pending queue: %w", err)
	}
	if _, err := a.Save(ctx, pend, "pending-replay"); err != nil {
		return 0, err
	}
	return len(pend), nil
}

func (a *Adapter) loadCache() *LoadResult {
	ledger, found, err := store.ReadLedgerFile(a.CachePath, a.sep())
	if err != nil {
		a.log().Warnw("cache unreadable", "path", a.CachePath, "error", err)
		return &LoadResult{Origin: OriginEmpty}
	}
	if !found {
		return &LoadResult{Origin: OriginEmpty}
	}
	return &LoadResult{Ledger: ledger, Origin: OriginCache}
}

// writeCache mirrors the ledger locally, best-effort: a cache-write
// failure never fails the load that produced the ledger.
func (a *Adapter) writeCache(ledger []record.Record) {
	if a.CachePath == "" {
		return
	}
	if err := store.WriteLedgerFile(a.CachePath, ledger, a.sep()); err != nil {
		a.log().Warnw("cache write failed", "path", a.CachePath, "error", err)
	}
}

func (a *Adapter) setStatus(origin Origin, degraded bool, notice string) {
	a.status.Origin = origin
	a.status.Degraded = degraded
	a.status.Notice = notice
}
