package sync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missive/internal/identity"
	"missive/internal/mail"
	"missive/internal/model"
	"missive/internal/store"
	"missive/internal/sync"
	"missive/tests/testutil"
)

type fakeTransport struct {
	messages []model.Message
	fetchErr error
	folder   string
	maxCount int
}

func (f *fakeTransport) Fetch(
	_ context.Context, folder string, maxCount int,
) ([]model.Message, error) {
	f.folder = folder
	f.maxCount = maxCount
	return f.messages, f.fetchErr
}

func (f *fakeTransport) Send(context.Context, model.OutboundMessage) error { return nil }
func (f *fakeTransport) TestFetch(context.Context) error                   { return nil }
func (f *fakeTransport) TestSend(context.Context) error                    { return nil }

func factoryFor(ft *fakeTransport) mail.Factory {
	return func(model.Account) mail.Transport { return ft }
}

func remoteMessage(id, date string) model.Message {
	return model.Message{
		ID:        id,
		From:      model.Address{Name: "Alice", Email: "alice@example.com"},
		To:        []model.Address{{Email: "me@example.com"}},
		Subject:   "Hi",
		Body:      "hello",
		Date:      date,
		Folder:    "inbox",
		AccountID: "a1",
	}
}

func TestSyncFolderCommitsNewMessages(t *testing.T) {
	st := testutil.NewTestStore(t)
	ft := &fakeTransport{messages: []model.Message{
		remoteMessage("a1:1", "2026-01-01T10:00:00Z"),
		remoteMessage("a1:2", "2026-01-02T10:00:00Z"),
	}}
	sy := sync.New(st, factoryFor(ft), identity.NewResolver(st), nil)
	ctx := context.Background()

	res, err := sy.SyncFolder(ctx, model.Account{ID: "a1", Email: "me@example.com"}, "inbox", 25)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, sync.PhaseCommitted, res.Phase)
	assert.Equal(t, "inbox", ft.folder)
	assert.Equal(t, 25, ft.maxCount)

	// Identities were resolved before commit.
	got, err := st.GetMessage(ctx, "a1:1")
	require.NoError(t, err)
	assert.Equal(t, "identity:alice_example_com", got.FromIdentity)
	assert.Equal(t, []string{"identity:me_example_com"}, got.ToIdentities)
}

func TestSyncFolderSkipsDuplicates(t *testing.T) {
	st := testutil.NewTestStore(t)
	ft := &fakeTransport{messages: []model.Message{
		remoteMessage("a1:1", "2026-01-01T10:00:00Z"),
	}}
	sy := sync.New(st, factoryFor(ft), identity.NewResolver(st), nil)
	ctx := context.Background()
	acc := model.Account{ID: "a1", Email: "me@example.com"}

	_, err := sy.SyncFolder(ctx, acc, "inbox", 25)
	require.NoError(t, err)

	// A second run sees the same remote message plus a new one.
	ft.messages = append(ft.messages, remoteMessage("a1:2", "2026-01-02T10:00:00Z"))

	res, err := sy.SyncFolder(ctx, acc, "inbox", 25)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, sync.PhaseCommitted, res.Phase)
}

func TestSyncFolderFetchFailure(t *testing.T) {
	st := testutil.NewTestStore(t)
	fetchErr := &mail.AuthError{Username: "me@example.com", Err: errors.New("denied")}
	ft := &fakeTransport{fetchErr: fetchErr}
	sy := sync.New(st, factoryFor(ft), identity.NewResolver(st), nil)

	res, err := sy.SyncFolder(
		context.Background(),
		model.Account{ID: "a1", Email: "me@example.com"},
		"inbox", 25,
	)
	require.Error(t, err)
	assert.True(t, mail.IsAuthError(err))
	assert.Equal(t, sync.PhaseFailed, res.Phase)
	assert.Equal(t, 0, res.New)
}

// failingIdentityStore refuses every identity upsert, as a store losing its
// backing file would.
type failingIdentityStore struct {
	store.Store
}

func (s *failingIdentityStore) UpsertIdentity(context.Context, model.Identity) error {
	return &store.StorageError{Op: "upserting identity", Err: errors.New("database is locked")}
}

func TestSyncFolderAbortsOnIdentityFailure(t *testing.T) {
	base := testutil.NewTestStore(t)
	st := &failingIdentityStore{Store: base}
	ft := &fakeTransport{messages: []model.Message{
		remoteMessage("a1:1", "2026-01-01T10:00:00Z"),
		remoteMessage("a1:2", "2026-01-02T10:00:00Z"),
	}}
	sy := sync.New(st, factoryFor(ft), identity.NewResolver(st), nil)
	ctx := context.Background()

	res, err := sy.SyncFolder(ctx, model.Account{ID: "a1", Email: "me@example.com"}, "inbox", 25)
	require.Error(t, err)
	assert.True(t, store.IsStorageError(err))
	assert.Equal(t, sync.PhaseFailed, res.Phase)
	assert.Equal(t, 0, res.New)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, sync.PhaseFailed, sy.LastStatus().Phase)

	// Nothing was committed.
	messages, err := base.GetAllMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSyncFolderEmptyMailbox(t *testing.T) {
	st := testutil.NewTestStore(t)
	ft := &fakeTransport{}
	sy := sync.New(st, factoryFor(ft), identity.NewResolver(st), nil)

	res, err := sy.SyncFolder(
		context.Background(),
		model.Account{ID: "a1", Email: "me@example.com"},
		"inbox", 25,
	)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Fetched)
	assert.Equal(t, sync.PhaseCommitted, res.Phase)
}

func TestLastStatus(t *testing.T) {
	st := testutil.NewTestStore(t)
	ft := &fakeTransport{messages: []model.Message{
		remoteMessage("a1:1", "2026-01-01T10:00:00Z"),
	}}
	sy := sync.New(st, factoryFor(ft), identity.NewResolver(st), nil)
	ctx := context.Background()
	acc := model.Account{ID: "a1", Email: "me@example.com"}

	assert.Equal(t, sync.PhaseIdle, sy.LastStatus().Phase)

	_, err := sy.SyncFolder(ctx, acc, "inbox", 25)
	require.NoError(t, err)

	status := sy.LastStatus()
	assert.Equal(t, sync.PhaseCommitted, status.Phase)
	assert.False(t, status.LastSync.IsZero())
	assert.NoError(t, status.LastErr)

	ft.fetchErr = errors.New("boom")
	_, err = sy.SyncFolder(ctx, acc, "inbox", 25)
	require.Error(t, err)

	status = sy.LastStatus()
	assert.Equal(t, sync.PhaseFailed, status.Phase)
	assert.Error(t, status.LastErr)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", sync.PhaseIdle.String())
	assert.Equal(t, "fetching", sync.PhaseFetching.String())
	assert.Equal(t, "resolving", sync.PhaseResolving.String())
	assert.Equal(t, "deduplicating", sync.PhaseDeduplicating.String())
	assert.Equal(t, "committed", sync.PhaseCommitted.String())
	assert.Equal(t, "failed", sync.PhaseFailed.String())
}
