package tracker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvidovic/lokator/internal/record"
	"github.com/dvidovic/lokator/internal/remote"
	"github.com/dvidovic/lokator/internal/store"
	"github.com/dvidovic/lokator/internal/testutil"
)

// fakeRemote is an in-memory remote.Client with scriptable failures.
type fakeRemote struct {
	content []byte
	sha     string
	etag    string
	gen     int

	getErr      error
	getErrCount int // fail this many Gets, then succeed
	putErr      error
	putErrCount int // fail this many Puts, then succeed
	getCalls    int
	putCalls    int

	// concurrent, when set, lands as another writer's commit on the next
	// Put, which then fails with a stale-token conflict.
	concurrent []byte
}

func (f *fakeRemote) bump(content []byte) {
	f.gen++
	f.content = content
	f.sha = fmt.Sprintf("sha-%d", f.gen)
	f.etag = fmt.Sprintf(`"etag-%d"`, f.gen)
}

func (f *fakeRemote) Get(ctx context.Context, path, etag string) (*remote.Content, error) {
	f.getCalls++
	if f.getErrCount > 0 {
		f.getErrCount--
		return nil, f.getErr
	}
	if f.content == nil {
		return nil, remote.ErrNotFound
	}
	if etag != "" && etag == f.etag {
		return nil, remote.ErrNotModified
	}
	return &remote.Content{Bytes: f.content, SHA: f.sha, ETag: f.etag}, nil
}

func (f *fakeRemote) Put(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error) {
	f.putCalls++
	if f.putErrCount > 0 {
		f.putErrCount--
		return "", f.putErr
	}
	if f.concurrent != nil {
		f.bump(f.concurrent)
		f.concurrent = nil
		return "", remote.ErrConflict
	}
	if f.content != nil && expectedSHA != f.sha {
		return "", remote.ErrConflict
	}
	f.bump(content)
	return f.sha, nil
}

func newTestAdapter(t *testing.T, rem remote.Client) *Adapter {
	t.Helper()
	dir := t.TempDir()
	clock := testutil.NewClock(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC), time.Minute)
	return &Adapter{
		Remote:      rem,
		RemotePath:  "data/Tracker.csv",
		CachePath:   filepath.Join(dir, "Tracker.local.csv"),
		PendingPath: filepath.Join(dir, "Tracker.pending.csv"),
		Clock:       clock.Now,
	}
}

func encode(t *testing.T, rows []record.Record) []byte {
	t.Helper()
	b, err := store.EncodeLedger(rows, store.DefaultSeparator)
	require.NoError(t, err)
	return b
}

func submission(name, dateISO, location string) record.Record {
	return record.Record{PersonName: name, DateISO: dateISO, Location: location}
}

func TestLoad_FirstRunEmpty(t *testing.T) {
	a := newTestAdapter(t, &fakeRemote{})

	res, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginEmpty, res.Origin)
	assert.Empty(t, res.Ledger)
	assert.False(t, a.Status().Degraded)
}

func TestLoad_RemoteAndCacheMirror(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
	}))
	a := newTestAdapter(t, rem)

	res, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginRemote, res.Origin)
	require.Len(t, res.Ledger, 1)
	assert.Equal(t, rem.sha, res.SHA)
	// Fetched rows are stamped and renormalized on the way in.
	assert.NotEmpty(t, res.Ledger[0].RecordID)
	assert.Equal(t, 36, res.Ledger[0].Week)

	// The cache now mirrors the remote ledger.
	cached, found, err := store.ReadLedgerFile(a.CachePath, store.DefaultSeparator)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, res.Ledger, cached)
}

func TestLoad_NotModifiedServesCache(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
	}))
	a := newTestAdapter(t, rem)

	first, err := a.Load(context.Background())
	require.NoError(t, err)

	second, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginCache, second.Origin)
	assert.Equal(t, first.Ledger, second.Ledger)
	// The write precondition survives a not-modified read.
	assert.Equal(t, first.SHA, second.SHA)
}

func TestLoad_UndecodableRemoteReturnsNilResult(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(append([]byte("SQLite format 3\x00"), []byte("not a database")...))
	a := newTestAdapter(t, rem)

	res, err := a.Load(context.Background())
	assert.Nil(t, res)
	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeParse, se.Code)
}

func TestLoad_TransientDegradesToCache(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
	}))
	a := newTestAdapter(t, rem)

	_, err := a.Load(context.Background())
	require.NoError(t, err)

	a.etag = "" // force a real fetch
	rem.getErr = &remote.APIError{Op: "get", Status: 503}
	rem.getErrCount = 1

	res, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginCache, res.Origin)
	require.Len(t, res.Ledger, 1)

	st := a.Status()
	assert.True(t, st.Degraded)
	assert.NotEmpty(t, st.Notice)
}

func TestLoad_FatalReturnsCacheAndError(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
	}))
	a := newTestAdapter(t, rem)

	_, err := a.Load(context.Background())
	require.NoError(t, err)

	a.etag = ""
	rem.getErr = &remote.APIError{Op: "get", Status: 401}
	rem.getErrCount = 1

	res, err := a.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	require.NotNil(t, res)
	assert.Equal(t, OriginCache, res.Origin)
	assert.Len(t, res.Ledger, 1)
}

func TestLoad_LocalOnlyMode(t *testing.T) {
	a := newTestAdapter(t, nil)

	res, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginEmpty, res.Origin)
}

func TestSave_PushesAndMirrors(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)

	out, err := a.Save(context.Background(), []record.Record{
		submission("Ana Anić", "2025-09-01", "Ured"),
	}, "local")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "local", out[0].Source)
	assert.Equal(t, 1, rem.putCalls)

	// Remote content decodes back to the same ledger.
	back, err := store.DecodeLedger(rem.content, store.DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, out[0].RecordID, back[0].RecordID)

	cached, _, err := store.ReadLedgerFile(a.CachePath, store.DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, out, cached)
	assert.False(t, a.Status().Degraded)
	assert.False(t, a.Status().LastSync.IsZero())
}

func TestSave_MergesWithRemote(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
	}))
	a := newTestAdapter(t, rem)

	out, err := a.Save(context.Background(), []record.Record{
		submission("Ivo Ivić", "2025-09-02", "Remote"),
	}, "local")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestSave_ConflictRetriesOnceAndSucceeds(t *testing.T) {
	rem := &fakeRemote{}
	rem.bump(encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
	}))
	a := newTestAdapter(t, rem)

	// Another writer's commit lands between our load and our push.
	rem.concurrent = encode(t, []record.Record{
		{PersonName: "Ana Anić", DateISO: "2025-09-01", Location: "Ured", UpdatedAt: "2025-09-01T08:00:00Z"},
		{PersonName: "Maja Majić", DateISO: "2025-09-01", Location: "Teren", UpdatedAt: "2025-09-01T09:00:00Z"},
	})

	out, err := a.Save(context.Background(), []record.Record{
		submission("Ivo Ivić", "2025-09-02", "Remote"),
	}, "local")
	require.NoError(t, err)
	// First push fails on the stale token, the retry lands on the fresh
	// state with the concurrent writer's row preserved.
	assert.Equal(t, 2, rem.putCalls)
	assert.Len(t, out, 3)

	// Nothing queued: the batch made it through.
	pend, err := store.ReadPending(a.PendingPath, store.DefaultSeparator)
	require.NoError(t, err)
	assert.Empty(t, pend)
}

func TestSave_SecondConflictQueuesBatch(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)
	rem.putErr = remote.ErrConflict
	rem.putErrCount = 2

	batch := []record.Record{submission("Ana Anić", "2025-09-01", "Ured")}
	out, err := a.Save(context.Background(), batch, "local")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, 2, rem.putCalls) // one retry, never more
	require.Len(t, out, 1)           // local state still advanced

	pend, err := store.ReadPending(a.PendingPath, store.DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, pend, 1)
	assert.Equal(t, out[0].RecordID, pend[0].RecordID)
	assert.Equal(t, 1, a.Status().PendingCount)
	assert.True(t, a.Status().Degraded)
}

func TestSave_TransientQueuesBatch(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)
	rem.putErr = &remote.APIError{Op: "put", Status: 503}
	rem.putErrCount = 1

	_, err := a.Save(context.Background(), []record.Record{
		submission("Ana Anić", "2025-09-01", "Ured"),
	}, "local")
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	pend, err := store.ReadPending(a.PendingPath, store.DefaultSeparator)
	require.NoError(t, err)
	assert.Len(t, pend, 1)
}

func TestSave_LocalOnlyMode(t *testing.T) {
	a := newTestAdapter(t, nil)

	out, err := a.Save(context.Background(), []record.Record{
		submission("Ana Anić", "2025-09-01", "Ured"),
	}, "local")
	require.NoError(t, err)
	assert.Len(t, out, 1)

	cached, found, err := store.ReadLedgerFile(a.CachePath, store.DefaultSeparator)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, out, cached)
}

func TestSave_TrimClearedPolicy(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)
	a.TrimCleared = true

	out, err := a.Save(context.Background(), []record.Record{
		submission("Ana Anić", "2025-09-01", "Ured"),
		submission("Ivo Ivić", "2025-09-01", ""),
	}, "local")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ana Anić", out[0].PersonName)
}

func TestSyncPending_ReplaysAndClears(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)
	rem.putErr = &remote.APIError{Op: "put", Status: 503}
	rem.putErrCount = 1

	_, err := a.Save(context.Background(), []record.Record{
		submission("Ana Anić", "2025-09-01", "Ured"),
	}, "local")
	require.Error(t, err)

	n, err := a.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pend, err := store.ReadPending(a.PendingPath, store.DefaultSeparator)
	require.NoError(t, err)
	assert.Empty(t, pend)
	assert.Equal(t, 0, a.Status().PendingCount)

	// The replayed row reached the remote store exactly once.
	back, err := store.DecodeLedger(rem.content, store.DefaultSeparator)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Ana Anić", back[0].PersonName)
}

func TestSyncPending_FailedReplayKeepsQueueStable(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)
	rem.putErr = &remote.APIError{Op: "put", Status: 503}
	rem.putErrCount = 100

	_, err := a.Save(context.Background(), []record.Record{
		submission("Ana Anić", "2025-09-01", "Ured"),
	}, "local")
	require.Error(t, err)

	// Each failed replay re-queues the batch it drained; the queue must
	// hold exactly that batch afterwards, never the batch concatenated
	// onto the previous round's copy.
	for i := 0; i < 4; i++ {
		_, err := a.SyncPending(context.Background())
		require.Error(t, err)

		pend, perr := store.ReadPending(a.PendingPath, store.DefaultSeparator)
		require.NoError(t, perr)
		require.Len(t, pend, 1)
		assert.Equal(t, "Ana Anić", pend[0].PersonName)
	}
	assert.Equal(t, 1, a.Status().PendingCount)
}

func TestSyncPending_EmptyQueueNoop(t *testing.T) {
	rem := &fakeRemote{}
	a := newTestAdapter(t, rem)

	n, err := a.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, rem.putCalls)
}

func TestSyncError_Helpers(t *testing.T) {
	conflict := &SyncError{Code: ErrCodeConflict, Message: "m"}
	assert.True(t, IsConflict(conflict))
	assert.False(t, IsTransient(conflict))
	assert.False(t, IsConflict(errors.New("plain")))

	wrapped := &SyncError{Code: ErrCodeFatal, Message: "m", Err: remote.ErrNotFound}
	assert.True(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, remote.ErrNotFound)
}
