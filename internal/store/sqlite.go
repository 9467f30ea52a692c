package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"missive/internal/model"
)

const messageColumns = `
	email_id, from_name, from_email, from_identity,
	to_json, to_identities, cc_json, cc_identities, bcc_json, bcc_identities,
	subject, body, html_body, date, read, starred, folder,
	attachments, account_id, protocol_message_id`

// SQLiteStore implements the Store interface using a local SQLite database.
//
// A single mutex serializes every operation, so at most one store operation
// is in flight at a time regardless of how many goroutines hold the handle.
type SQLiteStore struct {
	mu sync.Mutex
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &StorageError{Op: "enable wal", Err: err}
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, &StorageError{Op: "enable foreign keys", Err: err}
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return &StorageError{Op: "checking schema_version table", Err: err}
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return &StorageError{Op: "reading schema version", Err: err}
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return &StorageError{Op: fmt.Sprintf("applying migration v%d", m.version), Err: err}
		}
	}

	return nil
}

// CreateMessage persists a new message keyed by its external id.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM messages WHERE email_id = ?", msg.ID,
	)
	if err != nil {
		return &StorageError{Op: "checking message " + msg.ID, Err: err}
	}
	if count > 0 {
		return fmt.Errorf("message %s: %w", msg.ID, ErrDuplicate)
	}

	args, err := messageArgs(msg)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return &StorageError{Op: "creating message " + msg.ID, Err: err}
	}

	return nil
}

// GetMessage retrieves a single message by its external id.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowxContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE email_id = ?", id,
	)

	msg, err := scanMessageRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

// GetMessagesByFolder retrieves a folder's messages, newest first.
func (s *SQLiteStore) GetMessagesByFolder(
	ctx context.Context,
	folder string,
) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE folder = ? ORDER BY date DESC",
		folder,
	)
}

// GetAllMessages retrieves every stored message, newest first.
func (s *SQLiteStore) GetAllMessages(ctx context.Context) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages ORDER BY date DESC",
	)
}

// UpdateMessage rewrites the full record identified by msg.ID.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args, err := messageArgs(msg)
	if err != nil {
		return err
	}
	// messageArgs puts email_id first; the UPDATE binds it last.
	args = append(args[1:], msg.ID)

	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET
			from_name = ?, from_email = ?, from_identity = ?,
			to_json = ?, to_identities = ?,
			cc_json = ?, cc_identities = ?,
			bcc_json = ?, bcc_identities = ?,
			subject = ?, body = ?, html_body = ?, date = ?,
			read = ?, starred = ?, folder = ?,
			attachments = ?, account_id = ?, protocol_message_id = ?
		WHERE email_id = ?`,
		args...,
	)
	if err != nil {
		return &StorageError{Op: "updating message " + msg.ID, Err: err}
	}

	return requireRow(res, "message "+msg.ID)
}

// SetRead sets the read flag of a message.
func (s *SQLiteStore) SetRead(ctx context.Context, id string, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET read = ? WHERE email_id = ?", boolToInt(read), id,
	)
	if err != nil {
		return &StorageError{Op: "setting read flag on " + id, Err: err}
	}
	return requireRow(res, "message "+id)
}

// SetStarred sets the starred flag of a message.
func (s *SQLiteStore) SetStarred(ctx context.Context, id string, starred bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET starred = ? WHERE email_id = ?", boolToInt(starred), id,
	)
	if err != nil {
		return &StorageError{Op: "setting starred flag on " + id, Err: err}
	}
	return requireRow(res, "message "+id)
}

// MoveToFolder reassigns a message to another folder.
func (s *SQLiteStore) MoveToFolder(ctx context.Context, id, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET folder = ? WHERE email_id = ?", folder, id,
	)
	if err != nil {
		return &StorageError{Op: "moving message " + id, Err: err}
	}
	return requireRow(res, "message "+id)
}

// DeleteMessage removes a message by its external id.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE email_id = ?", id)
	if err != nil {
		return &StorageError{Op: "deleting message " + id, Err: err}
	}
	return requireRow(res, "message "+id)
}

// SearchMessages finds messages whose subject, body, or sender matches the
// query, case-insensitively, newest first.
func (s *SQLiteStore) SearchMessages(
	ctx context.Context,
	query string,
) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := "%" + query + "%"
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE subject LIKE ? COLLATE NOCASE
			OR body LIKE ? COLLATE NOCASE
			OR from_name LIKE ? COLLATE NOCASE
			OR from_email LIKE ? COLLATE NOCASE
		ORDER BY date DESC`,
		q, q, q, q,
	)
}

// CountMessages returns the number of messages in a folder; an empty folder
// name counts every message.
func (s *SQLiteStore) CountMessages(ctx context.Context, folder string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	var err error
	if folder == "" {
		err = s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages")
	} else {
		err = s.db.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM messages WHERE folder = ?", folder,
		)
	}
	if err != nil {
		return 0, &StorageError{Op: "counting messages", Err: err}
	}
	return count, nil
}

// CountUnread returns the number of unread messages in a folder; an empty
// folder name counts unread across all folders.
func (s *SQLiteStore) CountUnread(ctx context.Context, folder string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	var err error
	if folder == "" {
		err = s.db.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM messages WHERE read = 0",
		)
	} else {
		err = s.db.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM messages WHERE read = 0 AND folder = ?", folder,
		)
	}
	if err != nil {
		return 0, &StorageError{Op: "counting unread messages", Err: err}
	}
	return count, nil
}

// CreateAccount persists a new account profile.
func (s *SQLiteStore) CreateAccount(ctx context.Context, acc model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM accounts WHERE account_id = ? OR email = ?",
		acc.ID, acc.Email,
	)
	if err != nil {
		return &StorageError{Op: "checking account " + acc.ID, Err: err}
	}
	if count > 0 {
		return fmt.Errorf("account %s: %w", acc.Email, ErrDuplicate)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			account_id, email, name,
			imap_host, imap_port, smtp_host, smtp_port,
			username, password,
			use_implicit_tls, trust_invalid_imap_certs, trust_invalid_smtp_certs,
			identity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Email, acc.Name,
		acc.IMAPHost, acc.IMAPPort, acc.SMTPHost, acc.SMTPPort,
		acc.Username, acc.Password,
		boolToInt(acc.UseImplicitTLS),
		boolToInt(acc.TrustInvalidIMAPCerts),
		boolToInt(acc.TrustInvalidSMTPCerts),
		acc.Identity,
	)
	if err != nil {
		return &StorageError{Op: "creating account " + acc.ID, Err: err}
	}

	return nil
}

// GetAccount retrieves an account by its external id.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getAccountWhere(ctx, "account_id = ?", id)
}

// GetAccountByEmail retrieves an account by its mailbox address.
func (s *SQLiteStore) GetAccountByEmail(
	ctx context.Context,
	email string,
) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getAccountWhere(ctx, "email = ?", email)
}

func (s *SQLiteStore) getAccountWhere(
	ctx context.Context,
	where string,
	arg interface{},
) (*model.Account, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT account_id, email, name,
			imap_host, imap_port, smtp_host, smtp_port,
			username, password,
			use_implicit_tls, trust_invalid_imap_certs, trust_invalid_smtp_certs,
			identity
		FROM accounts WHERE `+where, arg,
	)

	acc, err := scanAccountRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

// GetAllAccounts retrieves every account profile ordered by email.
func (s *SQLiteStore) GetAllAccounts(ctx context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryxContext(ctx, `
		SELECT account_id, email, name,
			imap_host, imap_port, smtp_host, smtp_port,
			username, password,
			use_implicit_tls, trust_invalid_imap_certs, trust_invalid_smtp_certs,
			identity
		FROM accounts ORDER BY email`,
	)
	if err != nil {
		return nil, &StorageError{Op: "querying accounts", Err: err}
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterating accounts", Err: err}
	}
	return accounts, nil
}

// UpdateAccount rewrites the account identified by acc.ID.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, acc model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET
			email = ?, name = ?,
			imap_host = ?, imap_port = ?, smtp_host = ?, smtp_port = ?,
			username = ?, password = ?,
			use_implicit_tls = ?, trust_invalid_imap_certs = ?, trust_invalid_smtp_certs = ?,
			identity = ?
		WHERE account_id = ?`,
		acc.Email, acc.Name,
		acc.IMAPHost, acc.IMAPPort, acc.SMTPHost, acc.SMTPPort,
		acc.Username, acc.Password,
		boolToInt(acc.UseImplicitTLS),
		boolToInt(acc.TrustInvalidIMAPCerts),
		boolToInt(acc.TrustInvalidSMTPCerts),
		acc.Identity, acc.ID,
	)
	if err != nil {
		return &StorageError{Op: "updating account " + acc.ID, Err: err}
	}
	return requireRow(res, "account "+acc.ID)
}

// DeleteAccount removes an account and, in the same transaction, every
// message that references it.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "beginning transaction", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM messages WHERE account_id = ?", id,
	); err != nil {
		return &StorageError{Op: "deleting messages of account " + id, Err: err}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE account_id = ?", id)
	if err != nil {
		return &StorageError{Op: "deleting account " + id, Err: err}
	}
	if err := requireRow(res, "account "+id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "committing account deletion", Err: err}
	}
	return nil
}

// UpsertIdentity creates or refreshes an identity record. A non-empty
// incoming name replaces the stored one; an empty name leaves it untouched.
func (s *SQLiteStore) UpsertIdentity(ctx context.Context, identity model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (identity_key, email, name)
		VALUES (?, ?, ?)
		ON CONFLICT(identity_key) DO UPDATE SET
			email = excluded.email,
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE name END`,
		identity.Key, identity.Email, identity.Name,
	)
	if err != nil {
		return &StorageError{Op: "upserting identity " + identity.Key, Err: err}
	}
	return nil
}

// GetIdentity retrieves an identity by its normalized key.
func (s *SQLiteStore) GetIdentity(ctx context.Context, key string) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var identity model.Identity
	err := s.db.QueryRowxContext(ctx,
		"SELECT identity_key, email, name FROM identities WHERE identity_key = ?", key,
	).Scan(&identity.Key, &identity.Email, &identity.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, &StorageError{Op: "getting identity " + key, Err: err}
	}

	return &identity, nil
}

// queryMessages runs a message query and scans the full result set.
// Callers hold the mutex.
func (s *SQLiteStore) queryMessages(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]model.Message, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "querying messages", Err: err}
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterating messages", Err: err}
	}
	return messages, nil
}

// messageArgs flattens a message into bind arguments in messageColumns order.
func messageArgs(msg model.Message) ([]interface{}, error) {
	toJSON, err := marshalJSON(msg.To)
	if err != nil {
		return nil, &StorageError{Op: "marshaling to list", Err: err}
	}
	toIdentities, err := marshalJSON(msg.ToIdentities)
	if err != nil {
		return nil, &StorageError{Op: "marshaling to identities", Err: err}
	}
	ccJSON, err := marshalJSON(msg.Cc)
	if err != nil {
		return nil, &StorageError{Op: "marshaling cc list", Err: err}
	}
	ccIdentities, err := marshalJSON(msg.CcIdentities)
	if err != nil {
		return nil, &StorageError{Op: "marshaling cc identities", Err: err}
	}
	bccJSON, err := marshalJSON(msg.Bcc)
	if err != nil {
		return nil, &StorageError{Op: "marshaling bcc list", Err: err}
	}
	bccIdentities, err := marshalJSON(msg.BccIdentities)
	if err != nil {
		return nil, &StorageError{Op: "marshaling bcc identities", Err: err}
	}
	attachments, err := marshalJSON(msg.Attachments)
	if err != nil {
		return nil, &StorageError{Op: "marshaling attachments", Err: err}
	}

	return []interface{}{
		msg.ID, msg.From.Name, msg.From.Email, msg.FromIdentity,
		toJSON, toIdentities, ccJSON, ccIdentities, bccJSON, bccIdentities,
		msg.Subject, msg.Body, msg.HTMLBody, msg.Date,
		boolToInt(msg.Read), boolToInt(msg.Starred), msg.Folder,
		attachments, msg.AccountID, msg.MessageID,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMessage scans a message row from a sqlx.Rows result set.
func scanMessage(rows *sqlx.Rows) (model.Message, error) {
	msg, err := scanMessageFrom(rows)
	if err != nil {
		return model.Message{}, &StorageError{Op: "scanning message row", Err: err}
	}
	return msg, nil
}

// scanMessageRow scans a single message row from a sqlx.Row.
func scanMessageRow(row *sqlx.Row) (model.Message, error) {
	msg, err := scanMessageFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, err
	}
	if err != nil {
		return model.Message{}, &StorageError{Op: "scanning message row", Err: err}
	}
	return msg, nil
}

func scanMessageFrom(r rowScanner) (model.Message, error) {
	var (
		msg           model.Message
		toJSON        string
		toIdentities  string
		ccJSON        string
		ccIdentities  string
		bccJSON       string
		bccIdentities string
		attachments   string
		readInt       int
		starredInt    int
	)

	err := r.Scan(
		&msg.ID, &msg.From.Name, &msg.From.Email, &msg.FromIdentity,
		&toJSON, &toIdentities, &ccJSON, &ccIdentities, &bccJSON, &bccIdentities,
		&msg.Subject, &msg.Body, &msg.HTMLBody, &msg.Date,
		&readInt, &starredInt, &msg.Folder,
		&attachments, &msg.AccountID, &msg.MessageID,
	)
	if err != nil {
		return model.Message{}, err
	}

	msg.Read = readInt != 0
	msg.Starred = starredInt != 0

	if err := unmarshalJSON(toJSON, &msg.To); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling to list: %w", err)
	}
	if err := unmarshalJSON(toIdentities, &msg.ToIdentities); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling to identities: %w", err)
	}
	if err := unmarshalJSON(ccJSON, &msg.Cc); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling cc list: %w", err)
	}
	if err := unmarshalJSON(ccIdentities, &msg.CcIdentities); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling cc identities: %w", err)
	}
	if err := unmarshalJSON(bccJSON, &msg.Bcc); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling bcc list: %w", err)
	}
	if err := unmarshalJSON(bccIdentities, &msg.BccIdentities); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling bcc identities: %w", err)
	}
	if err := unmarshalJSON(attachments, &msg.Attachments); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling attachments: %w", err)
	}

	return msg, nil
}

// scanAccount scans an account row from a sqlx.Rows result set.
func scanAccount(rows *sqlx.Rows) (model.Account, error) {
	acc, err := scanAccountFrom(rows)
	if err != nil {
		return model.Account{}, &StorageError{Op: "scanning account row", Err: err}
	}
	return acc, nil
}

// scanAccountRow scans a single account row from a sqlx.Row.
func scanAccountRow(row *sqlx.Row) (model.Account, error) {
	acc, err := scanAccountFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, err
	}
	if err != nil {
		return model.Account{}, &StorageError{Op: "scanning account row", Err: err}
	}
	return acc, nil
}

func scanAccountFrom(r rowScanner) (model.Account, error) {
	var (
		acc              model.Account
		useImplicitTLS   int
		trustInvalidIMAP int
		trustInvalidSMTP int
	)

	err := r.Scan(
		&acc.ID, &acc.Email, &acc.Name,
		&acc.IMAPHost, &acc.IMAPPort, &acc.SMTPHost, &acc.SMTPPort,
		&acc.Username, &acc.Password,
		&useImplicitTLS, &trustInvalidIMAP, &trustInvalidSMTP,
		&acc.Identity,
	)
	if err != nil {
		return model.Account{}, err
	}

	acc.UseImplicitTLS = useImplicitTLS != 0
	acc.TrustInvalidIMAPCerts = trustInvalidIMAP != 0
	acc.TrustInvalidSMTPCerts = trustInvalidSMTP != 0

	return acc, nil
}

// requireRow converts a zero-rows-affected result into ErrNotFound.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: "checking rows affected", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// marshalJSON renders nil slices as empty JSON arrays so columns never hold
// the literal string "null".
func marshalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(b)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}

func unmarshalJSON(s string, v interface{}) error {
	if s == "" || s == "[]" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
