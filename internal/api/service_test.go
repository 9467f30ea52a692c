package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missive/internal/mail"
	"missive/internal/model"
	"missive/internal/store"
	"missive/tests/testutil"
)

// fakeMail stands in for the IMAP/SMTP transport. It serves canned messages
// per account and records what was sent and by whom.
type fakeMail struct {
	perAccount   map[string][]model.Message
	fetchErr     error
	sendErr      error
	testFetchErr error
	testSendErr  error

	sent []sentEnvelope
}

type sentEnvelope struct {
	accountID string
	password  string
	out       model.OutboundMessage
}

func (f *fakeMail) factory(acc model.Account) mail.Transport {
	return &fakeClient{f: f, account: acc}
}

type fakeClient struct {
	f       *fakeMail
	account model.Account
}

func (c *fakeClient) Fetch(
	_ context.Context, _ string, _ int,
) ([]model.Message, error) {
	if c.f.fetchErr != nil {
		return nil, c.f.fetchErr
	}
	return c.f.perAccount[c.account.ID], nil
}

func (c *fakeClient) Send(_ context.Context, out model.OutboundMessage) error {
	if c.f.sendErr != nil {
		return c.f.sendErr
	}
	c.f.sent = append(c.f.sent, sentEnvelope{
		accountID: c.account.ID,
		password:  c.account.Password,
		out:       out,
	})
	return nil
}

func (c *fakeClient) TestFetch(context.Context) error { return c.f.testFetchErr }
func (c *fakeClient) TestSend(context.Context) error  { return c.f.testSendErr }

func newTestService(t *testing.T, fm *fakeMail) *Service {
	t.Helper()
	cfg := &model.AppConfig{FetchLimit: 25}
	return newService(cfg, testutil.NewTestStore(t), "test.db", fm.factory, nil)
}

func testAccount(id, email string) model.Account {
	return model.Account{
		ID:       id,
		Email:    email,
		Name:     "Me",
		IMAPHost: "imap.example.com", IMAPPort: 993,
		SMTPHost: "smtp.example.com", SMTPPort: 465,
		Username: email, Password: "secret",
		UseImplicitTLS: true,
	}
}

func inboxMessage(id, accountID, date string) model.Message {
	return model.Message{
		ID:        id,
		From:      model.Address{Name: "Alice", Email: "alice@example.com"},
		To:        []model.Address{{Email: "me@example.com"}},
		Subject:   "Hi",
		Body:      "hello",
		Date:      date,
		Folder:    "inbox",
		AccountID: accountID,
	}
}

func TestFetchEmailsSyncsAllAccounts(t *testing.T) {
	fm := &fakeMail{perAccount: map[string][]model.Message{
		"a1": {inboxMessage("a1:1", "a1", "2026-01-01T10:00:00Z")},
		"a2": {inboxMessage("a2:1", "a2", "2026-01-02T10:00:00Z")},
	}}
	svc := newTestService(t, fm)
	ctx := context.Background()

	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a1", "me@example.com")))
	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a2", "other@example.com")))

	messages, err := svc.FetchEmails(ctx, "inbox")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "a2:1", messages[0].ID)
	assert.Equal(t, "a1:1", messages[1].ID)

	// A second fetch does not duplicate anything.
	messages, err = svc.FetchEmails(ctx, "inbox")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSyncEmailsReportsCounts(t *testing.T) {
	fm := &fakeMail{perAccount: map[string][]model.Message{
		"a1": {
			inboxMessage("a1:1", "a1", "2026-01-01T10:00:00Z"),
			inboxMessage("a1:2", "a1", "2026-01-02T10:00:00Z"),
		},
	}}
	svc := newTestService(t, fm)
	ctx := context.Background()

	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a1", "me@example.com")))

	res, err := svc.SyncEmails(ctx, "a1", "inbox")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.New)

	res, err = svc.SyncEmails(ctx, "a1", "inbox")
	require.NoError(t, err)
	assert.Equal(t, 0, res.New)
	assert.Equal(t, 2, res.Skipped)

	_, err = svc.SyncEmails(ctx, "missing", "inbox")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendEmailRecordsSentCopy(t *testing.T) {
	fm := &fakeMail{}
	svc := newTestService(t, fm)
	ctx := context.Background()

	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a1", "me@example.com")))

	out := model.OutboundMessage{
		From:    model.Address{Name: "Me", Email: "me@example.com"},
		To:      []model.Address{{Name: "Bob", Email: "bob@example.com"}},
		Subject: "Hello",
		Body:    "hi there",
	}

	echo, err := svc.SendEmail(ctx, out)
	require.NoError(t, err)

	require.Len(t, fm.sent, 1)
	assert.Equal(t, "a1", fm.sent[0].accountID)
	assert.Equal(t, out, fm.sent[0].out)

	assert.Equal(t, SentFolder, echo.Folder)
	assert.True(t, echo.Read)
	assert.Equal(t, "a1", echo.AccountID)
	assert.Equal(t, "identity:me_example_com", echo.FromIdentity)
	assert.Equal(t, []string{"identity:bob_example_com"}, echo.ToIdentities)

	stored, err := svc.GetEmails(ctx, SentFolder)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, echo.ID, stored[0].ID)
}

func TestSendEmailPicksAccountByFromAddress(t *testing.T) {
	fm := &fakeMail{}
	svc := newTestService(t, fm)
	ctx := context.Background()

	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a1", "me@example.com")))
	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a2", "work@example.com")))

	out := model.OutboundMessage{
		From: model.Address{Email: "work@example.com"},
		To:   []model.Address{{Email: "bob@example.com"}},
	}
	_, err := svc.SendEmail(ctx, out)
	require.NoError(t, err)
	require.Len(t, fm.sent, 1)
	assert.Equal(t, "a2", fm.sent[0].accountID)

	// An unknown From falls back to the first configured account.
	out.From = model.Address{Email: "unknown@example.com"}
	_, err = svc.SendEmail(ctx, out)
	require.NoError(t, err)
	require.Len(t, fm.sent, 2)
	assert.Equal(t, "a1", fm.sent[1].accountID)
}

func TestSendEmailNoAccount(t *testing.T) {
	svc := newTestService(t, &fakeMail{})

	_, err := svc.SendEmail(context.Background(), model.OutboundMessage{
		From: model.Address{Email: "me@example.com"},
		To:   []model.Address{{Email: "bob@example.com"}},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendEmailTransportFailure(t *testing.T) {
	fm := &fakeMail{sendErr: &mail.SMTPError{Op: "rcpt to", Err: errors.New("refused")}}
	svc := newTestService(t, fm)
	ctx := context.Background()

	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a1", "me@example.com")))

	_, err := svc.SendEmail(ctx, model.OutboundMessage{
		From: model.Address{Email: "me@example.com"},
		To:   []model.Address{{Email: "bob@example.com"}},
	})
	require.Error(t, err)
	assert.True(t, mail.IsSMTPError(err))

	// No sent copy on failure.
	stored, err := svc.GetEmails(ctx, SentFolder)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestMessageFlagOperations(t *testing.T) {
	fm := &fakeMail{}
	svc := newTestService(t, fm)
	ctx := context.Background()

	msg := inboxMessage("m1", "a1", "2026-01-01T10:00:00Z")
	require.NoError(t, svc.store.CreateMessage(ctx, msg))

	require.NoError(t, svc.MarkAsRead(ctx, "m1"))
	got, err := svc.GetEmail(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, got.Read)

	require.NoError(t, svc.MarkAsUnread(ctx, "m1"))
	got, err = svc.GetEmail(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, got.Read)

	starred, err := svc.ToggleStar(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, starred)

	starred, err = svc.ToggleStar(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, starred)

	require.NoError(t, svc.MoveToTrash(ctx, "m1"))
	got, err = svc.GetEmail(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, TrashFolder, got.Folder)

	require.NoError(t, svc.MoveToFolder(ctx, "m1", "archive"))
	got, err = svc.GetEmail(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "archive", got.Folder)

	require.NoError(t, svc.DeleteEmail(ctx, "m1"))
	_, err = svc.GetEmail(ctx, "m1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCountsAndSearch(t *testing.T) {
	fm := &fakeMail{}
	svc := newTestService(t, fm)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		msg := inboxMessage(
			fmt.Sprintf("m%d", i), "a1",
			fmt.Sprintf("2026-01-0%dT10:00:00Z", i),
		)
		if i == 3 {
			msg.Subject = "Invoice overdue"
			msg.Read = true
		}
		require.NoError(t, svc.store.CreateMessage(ctx, msg))
	}

	total, err := svc.GetFolderCount(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	unread, err := svc.GetUnreadCount(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	results, err := svc.SearchEmails(ctx, "invoice")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m3", results[0].ID)
}

func TestSaveAccountUpserts(t *testing.T) {
	svc := newTestService(t, &fakeMail{})
	ctx := context.Background()

	// No id: a fresh one is assigned.
	acc := testAccount("", "me@example.com")
	saved, err := svc.SaveAccount(ctx, acc)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "identity:me_example_com", saved.Identity)

	// Same mailbox address without an id updates in place.
	acc.Name = "New Name"
	again, err := svc.SaveAccount(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	accounts, err := svc.GetAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "New Name", accounts[0].Name)

	// A known id can change the mailbox address.
	updated := *again
	updated.Email = "renamed@example.com"
	_, err = svc.SaveAccount(ctx, updated)
	require.NoError(t, err)

	got, err := svc.store.GetAccount(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", got.Email)
}

func TestRemoveAccountDeletesMessages(t *testing.T) {
	svc := newTestService(t, &fakeMail{})
	ctx := context.Background()

	require.NoError(t, svc.store.CreateAccount(ctx, testAccount("a1", "me@example.com")))
	require.NoError(t, svc.store.CreateMessage(ctx, inboxMessage("a1:1", "a1", "2026-01-01T10:00:00Z")))

	require.NoError(t, svc.RemoveAccount(ctx, "a1"))

	_, err := svc.GetEmail(ctx, "a1:1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	accounts, err := svc.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestConnectionTests(t *testing.T) {
	fm := &fakeMail{}
	svc := newTestService(t, fm)
	ctx := context.Background()
	acc := testAccount("a1", "me@example.com")

	res := svc.TestConnection(ctx, acc)
	assert.True(t, res.Success)

	fm.testFetchErr = &mail.AuthError{Username: "me@example.com", Err: errors.New("denied")}
	res = svc.TestIMAPConnection(ctx, acc)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Authentication")

	res = svc.TestConnection(ctx, acc)
	assert.False(t, res.Success)

	fm.testFetchErr = nil
	fm.testSendErr = &mail.ConnectionError{Addr: "smtp.example.com:465", Err: errors.New("refused")}
	res = svc.TestSMTPConnection(ctx, acc)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "connect")

	res = svc.TestConnection(ctx, acc)
	assert.False(t, res.Success)
}
