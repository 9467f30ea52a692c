package store

import (
	"context"
	"errors"
	"fmt"

	"missive/internal/model"
)

// ErrNotFound is returned when a referenced entity is absent.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when creating an entity whose external
// identifier is already present.
var ErrDuplicate = errors.New("already exists")

// StorageError wraps a failure of the embedded store itself, as opposed to
// a not-found or uniqueness condition.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err (or its chain) is a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Store is the persistence interface for messages, accounts, and
// identities. Implementations serialize all operations: at most one store
// operation is in flight process-wide.
type Store interface {
	// === Messages ===

	// CreateMessage persists a new message. It fails with ErrDuplicate if
	// the message's external id is already present.
	CreateMessage(ctx context.Context, msg model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)

	// GetMessagesByFolder lists a folder's messages ordered by date
	// descending.
	GetMessagesByFolder(ctx context.Context, folder string) ([]model.Message, error)
	GetAllMessages(ctx context.Context) ([]model.Message, error)

	// UpdateMessage rewrites the full record identified by msg.ID.
	UpdateMessage(ctx context.Context, msg model.Message) error

	// Field-level updates; each fails with ErrNotFound when the message
	// is absent.
	SetRead(ctx context.Context, id string, read bool) error
	SetStarred(ctx context.Context, id string, starred bool) error
	MoveToFolder(ctx context.Context, id, folder string) error

	DeleteMessage(ctx context.Context, id string) error

	// SearchMessages matches the query case-insensitively as a substring
	// of subject, body, or sender name/address, ordered by date descending.
	SearchMessages(ctx context.Context, query string) ([]model.Message, error)

	CountMessages(ctx context.Context, folder string) (int, error)
	CountUnread(ctx context.Context, folder string) (int, error)

	// === Accounts ===

	CreateAccount(ctx context.Context, acc model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAllAccounts(ctx context.Context) ([]model.Account, error)
	UpdateAccount(ctx context.Context, acc model.Account) error

	// DeleteAccount removes the account and every message referencing it.
	DeleteAccount(ctx context.Context, id string) error

	// === Identities ===

	// UpsertIdentity creates or refreshes an identity record. A non-empty
	// incoming name wins; an empty one never clears a stored name.
	UpsertIdentity(ctx context.Context, identity model.Identity) error
	GetIdentity(ctx context.Context, key string) (*model.Identity, error)

	Close() error
}
