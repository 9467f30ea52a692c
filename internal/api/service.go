// Package api exposes the mail backend's operations as a single service:
// message access, folder sync, sending, account management, and connection
// diagnostics.
package api

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"missive/internal/credential"
	"missive/internal/identity"
	"missive/internal/mail"
	"missive/internal/model"
	"missive/internal/store"
	"missive/internal/sync"
)

// TrashFolder is where deleted-but-recoverable messages go.
const TrashFolder = "trash"

// SentFolder holds the local copies of submitted messages.
const SentFolder = "sent"

// Service wires the store, the mail transports, the identity resolver, and
// the sync orchestrator behind one API surface.
type Service struct {
	cfg        *model.AppConfig
	store      store.Store
	dbPath     string
	transports mail.Factory
	resolver   *identity.Resolver
	syncer     *sync.Syncer
	logger     *zap.Logger
}

// NewService opens the embedded store at the configured path and builds the
// full backend around it.
func NewService(cfg *model.AppConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := cfg.DatabasePath()
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	return newService(cfg, st, dbPath, mail.NewTransport, logger), nil
}

// newService assembles a Service around an already-open store. Tests use it
// to inject fakes.
func newService(
	cfg *model.AppConfig,
	st store.Store,
	dbPath string,
	transports mail.Factory,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := identity.NewResolver(st)
	return &Service{
		cfg:        cfg,
		store:      st,
		dbPath:     dbPath,
		transports: transports,
		resolver:   resolver,
		syncer:     sync.New(st, transports, resolver, logger),
		logger:     logger,
	}
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// DBPath returns the filesystem path of the embedded store.
func (s *Service) DBPath() string {
	return s.dbPath
}

// GetEmails lists a folder's messages, newest first.
func (s *Service) GetEmails(ctx context.Context, folder string) ([]model.Message, error) {
	return s.store.GetMessagesByFolder(ctx, folder)
}

// GetEmail retrieves a single message.
func (s *Service) GetEmail(ctx context.Context, id string) (*model.Message, error) {
	return s.store.GetMessage(ctx, id)
}

// FetchEmails syncs the folder for every configured account, then returns
// the folder's stored messages. Per-account sync failures are logged and do
// not block the other accounts; the error of the last failing account is
// returned alongside the messages already stored.
func (s *Service) FetchEmails(ctx context.Context, folder string) ([]model.Message, error) {
	accounts, err := s.store.GetAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var syncErr error
	for _, acc := range accounts {
		if _, err := s.syncAccount(ctx, acc, folder); err != nil {
			s.logger.Warn("account sync failed",
				zap.String("account", acc.Email), zap.Error(err),
			)
			syncErr = err
		}
	}

	messages, err := s.store.GetMessagesByFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	return messages, syncErr
}

// SyncEmails syncs one account's folder and reports the run's counts.
func (s *Service) SyncEmails(
	ctx context.Context,
	accountID, folder string,
) (sync.Result, error) {
	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return sync.Result{}, err
	}
	return s.syncAccount(ctx, *acc, folder)
}

func (s *Service) syncAccount(
	ctx context.Context,
	acc model.Account,
	folder string,
) (sync.Result, error) {
	acc, err := s.withPassword(acc)
	if err != nil {
		return sync.Result{}, err
	}
	return s.syncer.SyncFolder(ctx, acc, folder, s.cfg.FetchLimit)
}

// SendEmail submits an outbound message over the sending account's SMTP
// endpoint, then records a local copy in the sent folder, marked read, with
// its participants' identities resolved. The account is chosen by matching
// the From address; when no account matches, the first configured account
// sends.
func (s *Service) SendEmail(
	ctx context.Context,
	out model.OutboundMessage,
) (*model.Message, error) {
	acc, err := s.sendingAccount(ctx, out.From.Email)
	if err != nil {
		return nil, err
	}

	if err := s.transports(*acc).Send(ctx, out); err != nil {
		return nil, err
	}

	echo := model.NewMessage(out.From, out.To, out.Subject, out.Body, SentFolder)
	echo.Cc = out.Cc
	echo.Bcc = out.Bcc
	echo.Attachments = out.Attachments
	echo.Read = true
	echo.AccountID = acc.ID

	if err := s.resolver.Annotate(ctx, &echo); err != nil {
		s.logger.Warn("identity resolution failed for sent copy",
			zap.String("id", echo.ID), zap.Error(err),
		)
	}

	if err := s.store.CreateMessage(ctx, echo); err != nil {
		return nil, err
	}
	return &echo, nil
}

func (s *Service) sendingAccount(ctx context.Context, from string) (*model.Account, error) {
	acc, err := s.store.GetAccountByEmail(ctx, from)
	if err == nil {
		return s.withPasswordPtr(acc)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	accounts, err := s.store.GetAllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no account configured: %w", store.ErrNotFound)
	}
	return s.withPasswordPtr(&accounts[0])
}

// MarkAsRead marks a message read.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	return s.store.SetRead(ctx, id, true)
}

// MarkAsUnread marks a message unread.
func (s *Service) MarkAsUnread(ctx context.Context, id string) error {
	return s.store.SetRead(ctx, id, false)
}

// ToggleStar flips a message's starred flag and returns the new value.
func (s *Service) ToggleStar(ctx context.Context, id string) (bool, error) {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return false, err
	}

	starred := !msg.Starred
	if err := s.store.SetStarred(ctx, id, starred); err != nil {
		return false, err
	}
	return starred, nil
}

// DeleteEmail permanently removes a message.
func (s *Service) DeleteEmail(ctx context.Context, id string) error {
	return s.store.DeleteMessage(ctx, id)
}

// MoveToTrash moves a message to the trash folder.
func (s *Service) MoveToTrash(ctx context.Context, id string) error {
	return s.store.MoveToFolder(ctx, id, TrashFolder)
}

// MoveToFolder moves a message to an arbitrary folder.
func (s *Service) MoveToFolder(ctx context.Context, id, folder string) error {
	return s.store.MoveToFolder(ctx, id, folder)
}

// SearchEmails finds stored messages matching the query.
func (s *Service) SearchEmails(ctx context.Context, query string) ([]model.Message, error) {
	return s.store.SearchMessages(ctx, query)
}

// GetUnreadCount returns the unread count for a folder; empty means all
// folders.
func (s *Service) GetUnreadCount(ctx context.Context, folder string) (int, error) {
	return s.store.CountUnread(ctx, folder)
}

// GetFolderCount returns the total message count for a folder; empty means
// all folders.
func (s *Service) GetFolderCount(ctx context.Context, folder string) (int, error) {
	return s.store.CountMessages(ctx, folder)
}

// SaveAccount creates or updates an account profile. An incoming account is
// matched first by id, then by mailbox address; an unmatched one is created
// with a fresh id. When the keyring is enabled, the password moves there and
// the stored profile keeps only a placeholder.
func (s *Service) SaveAccount(ctx context.Context, acc model.Account) (*model.Account, error) {
	if acc.ID == "" {
		acc.ID = model.NewAccount(acc.Email, acc.Name).ID
	}

	// The owner is a contact like any other.
	if ref, err := s.resolver.Resolve(ctx, acc.Email, acc.Name); err == nil {
		acc.Identity = ref
	} else {
		s.logger.Warn("owner identity resolution failed",
			zap.String("account", acc.Email), zap.Error(err),
		)
	}

	if s.cfg.UseKeyring && acc.Password != "" {
		if err := credential.Set(credential.AccountKey(acc.ID), acc.Password); err != nil {
			return nil, err
		}
		acc.Password = ""
	}

	if _, err := s.store.GetAccount(ctx, acc.ID); err == nil {
		if err := s.store.UpdateAccount(ctx, acc); err != nil {
			return nil, err
		}
		return &acc, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if existing, err := s.store.GetAccountByEmail(ctx, acc.Email); err == nil {
		acc.ID = existing.ID
		if err := s.store.UpdateAccount(ctx, acc); err != nil {
			return nil, err
		}
		return &acc, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// RemoveAccount deletes an account, its messages, and its keyring entry.
func (s *Service) RemoveAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}

	if s.cfg.UseKeyring {
		if err := credential.Delete(credential.AccountKey(id)); err != nil {
			s.logger.Warn("deleting keyring entry failed",
				zap.String("account", id), zap.Error(err),
			)
		}
	}
	return nil
}

// GetAccounts lists every configured account.
func (s *Service) GetAccounts(ctx context.Context) ([]model.Account, error) {
	return s.store.GetAllAccounts(ctx)
}

// TestIMAPConnection verifies retrieval-side connectivity for an account
// profile. Failures are reported in the result, never as an error.
func (s *Service) TestIMAPConnection(
	ctx context.Context,
	acc model.Account,
) model.ConnectionTestResult {
	acc, err := s.withPassword(acc)
	if err != nil {
		return model.ConnectionTestResult{Message: err.Error()}
	}
	if err := s.transports(acc).TestFetch(ctx); err != nil {
		return model.ConnectionTestResult{Message: describeError(err)}
	}
	return model.ConnectionTestResult{Success: true, Message: "IMAP connection successful"}
}

// TestSMTPConnection verifies sending-side connectivity for an account
// profile. Failures are reported in the result, never as an error.
func (s *Service) TestSMTPConnection(
	ctx context.Context,
	acc model.Account,
) model.ConnectionTestResult {
	acc, err := s.withPassword(acc)
	if err != nil {
		return model.ConnectionTestResult{Message: err.Error()}
	}
	if err := s.transports(acc).TestSend(ctx); err != nil {
		return model.ConnectionTestResult{Message: describeError(err)}
	}
	return model.ConnectionTestResult{Success: true, Message: "SMTP connection successful"}
}

// TestConnection verifies both sides of an account profile. It succeeds only
// when both do; the message reports the first failing side.
func (s *Service) TestConnection(
	ctx context.Context,
	acc model.Account,
) model.ConnectionTestResult {
	if res := s.TestIMAPConnection(ctx, acc); !res.Success {
		return res
	}
	if res := s.TestSMTPConnection(ctx, acc); !res.Success {
		return res
	}
	return model.ConnectionTestResult{Success: true, Message: "IMAP and SMTP connections successful"}
}

// withPassword fills an empty account password from the keyring when the
// keyring is enabled.
func (s *Service) withPassword(acc model.Account) (model.Account, error) {
	if acc.Password != "" || !s.cfg.UseKeyring {
		return acc, nil
	}

	secret, err := credential.Get(credential.AccountKey(acc.ID))
	if err != nil {
		return acc, fmt.Errorf("loading credential for %s: %w", acc.Email, err)
	}
	acc.Password = secret
	return acc, nil
}

func (s *Service) withPasswordPtr(acc *model.Account) (*model.Account, error) {
	filled, err := s.withPassword(*acc)
	if err != nil {
		return nil, err
	}
	return &filled, nil
}
