package api

import (
	"context"
	"errors"

	"missive/internal/mail"
	"missive/internal/model"
	"missive/internal/store"
	"missive/internal/sync"
)

// Commands is the flattened command surface for an embedding frontend.
// Every method reports failure as a plain string error with a user-facing
// description; typed errors never cross this boundary.
type Commands struct {
	svc *Service
}

// NewCommands wraps a service in the command surface.
func NewCommands(svc *Service) *Commands {
	return &Commands{svc: svc}
}

func (c *Commands) GetEmails(ctx context.Context, folder string) ([]model.Message, error) {
	return flattenList(c.svc.GetEmails(ctx, folder))
}

func (c *Commands) GetEmail(ctx context.Context, id string) (*model.Message, error) {
	msg, err := c.svc.GetEmail(ctx, id)
	if err != nil {
		return nil, flatten(err)
	}
	return msg, nil
}

func (c *Commands) FetchEmails(ctx context.Context, folder string) ([]model.Message, error) {
	// Stored messages survive a partial sync failure; pass both through.
	messages, err := c.svc.FetchEmails(ctx, folder)
	return messages, flatten(err)
}

func (c *Commands) SyncEmails(
	ctx context.Context,
	accountID, folder string,
) (sync.Result, error) {
	res, err := c.svc.SyncEmails(ctx, accountID, folder)
	if err != nil {
		return res, flatten(err)
	}
	return res, nil
}

func (c *Commands) SendEmail(
	ctx context.Context,
	out model.OutboundMessage,
) (*model.Message, error) {
	msg, err := c.svc.SendEmail(ctx, out)
	if err != nil {
		return nil, flatten(err)
	}
	return msg, nil
}

func (c *Commands) MarkAsRead(ctx context.Context, id string) error {
	return flatten(c.svc.MarkAsRead(ctx, id))
}

func (c *Commands) MarkAsUnread(ctx context.Context, id string) error {
	return flatten(c.svc.MarkAsUnread(ctx, id))
}

func (c *Commands) ToggleStar(ctx context.Context, id string) (bool, error) {
	starred, err := c.svc.ToggleStar(ctx, id)
	if err != nil {
		return false, flatten(err)
	}
	return starred, nil
}

func (c *Commands) DeleteEmail(ctx context.Context, id string) error {
	return flatten(c.svc.DeleteEmail(ctx, id))
}

func (c *Commands) MoveToTrash(ctx context.Context, id string) error {
	return flatten(c.svc.MoveToTrash(ctx, id))
}

func (c *Commands) MoveToFolder(ctx context.Context, id, folder string) error {
	return flatten(c.svc.MoveToFolder(ctx, id, folder))
}

func (c *Commands) SearchEmails(ctx context.Context, query string) ([]model.Message, error) {
	return flattenList(c.svc.SearchEmails(ctx, query))
}

func (c *Commands) GetUnreadCount(ctx context.Context, folder string) (int, error) {
	n, err := c.svc.GetUnreadCount(ctx, folder)
	if err != nil {
		return 0, flatten(err)
	}
	return n, nil
}

func (c *Commands) GetFolderCount(ctx context.Context, folder string) (int, error) {
	n, err := c.svc.GetFolderCount(ctx, folder)
	if err != nil {
		return 0, flatten(err)
	}
	return n, nil
}

func (c *Commands) SaveAccount(
	ctx context.Context,
	acc model.Account,
) (*model.Account, error) {
	saved, err := c.svc.SaveAccount(ctx, acc)
	if err != nil {
		return nil, flatten(err)
	}
	return saved, nil
}

func (c *Commands) RemoveAccount(ctx context.Context, id string) error {
	return flatten(c.svc.RemoveAccount(ctx, id))
}

func (c *Commands) GetAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := c.svc.GetAccounts(ctx)
	if err != nil {
		return nil, flatten(err)
	}
	return accounts, nil
}

func (c *Commands) TestConnection(
	ctx context.Context,
	acc model.Account,
) model.ConnectionTestResult {
	return c.svc.TestConnection(ctx, acc)
}

func (c *Commands) TestIMAPConnection(
	ctx context.Context,
	acc model.Account,
) model.ConnectionTestResult {
	return c.svc.TestIMAPConnection(ctx, acc)
}

func (c *Commands) TestSMTPConnection(
	ctx context.Context,
	acc model.Account,
) model.ConnectionTestResult {
	return c.svc.TestSMTPConnection(ctx, acc)
}

func (c *Commands) GetDBPath() string {
	return c.svc.DBPath()
}

func flattenList(messages []model.Message, err error) ([]model.Message, error) {
	if err != nil {
		return nil, flatten(err)
	}
	return messages, nil
}

// flatError renders as the user-facing description while keeping the
// original error reachable through Unwrap.
type flatError struct {
	msg string
	err error
}

func (e *flatError) Error() string { return e.msg }
func (e *flatError) Unwrap() error { return e.err }

// flatten reduces a typed error to its display string. The original error
// stays underneath for programmatic inspection.
func flatten(err error) error {
	if err == nil {
		return nil
	}
	return &flatError{msg: describeError(err), err: err}
}

// describeError maps known error types to user-facing descriptions.
func describeError(err error) string {
	switch {
	case mail.IsAuthError(err):
		return "Authentication failed. Check the username and password."
	case mail.IsConnectionError(err):
		return "Could not connect to the mail server. Check the host, port, and TLS settings."
	case mail.IsProtocolError(err):
		return "The mail server rejected the request: " + err.Error()
	case mail.IsParseError(err):
		return "Invalid message: " + err.Error()
	case mail.IsSMTPError(err):
		return "Sending failed: " + err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, store.ErrDuplicate):
		return "Already exists: " + err.Error()
	default:
		return err.Error()
	}
}
