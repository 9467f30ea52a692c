package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// The externally-visible identifier of each entity is stored under its own
// column (email_id, account_id, identity_key) rather than the engine's
// native integer primary key; the store translates between the two on every
// read and write.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	email_id            TEXT NOT NULL UNIQUE,
	from_name           TEXT NOT NULL DEFAULT '',
	from_email          TEXT NOT NULL DEFAULT '',
	from_identity       TEXT NOT NULL DEFAULT '',
	to_json             TEXT NOT NULL DEFAULT '[]',
	to_identities       TEXT NOT NULL DEFAULT '[]',
	cc_json             TEXT NOT NULL DEFAULT '[]',
	cc_identities       TEXT NOT NULL DEFAULT '[]',
	bcc_json            TEXT NOT NULL DEFAULT '[]',
	bcc_identities      TEXT NOT NULL DEFAULT '[]',
	subject             TEXT NOT NULL DEFAULT '',
	body                TEXT NOT NULL DEFAULT '',
	html_body           TEXT NOT NULL DEFAULT '',
	date                TEXT NOT NULL,
	read                INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	starred             INTEGER NOT NULL DEFAULT 0 CHECK(starred IN (0, 1)),
	folder              TEXT NOT NULL DEFAULT 'inbox',
	attachments         TEXT NOT NULL DEFAULT '[]',
	account_id          TEXT NOT NULL DEFAULT '',
	protocol_message_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_messages_folder ON messages(folder);
CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date);

CREATE TABLE IF NOT EXISTS accounts (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id               TEXT NOT NULL UNIQUE,
	email                    TEXT NOT NULL UNIQUE,
	name                     TEXT NOT NULL DEFAULT '',
	imap_host                TEXT NOT NULL DEFAULT '',
	imap_port                INTEGER NOT NULL DEFAULT 0,
	smtp_host                TEXT NOT NULL DEFAULT '',
	smtp_port                INTEGER NOT NULL DEFAULT 0,
	username                 TEXT NOT NULL DEFAULT '',
	password                 TEXT NOT NULL DEFAULT '',
	use_implicit_tls         INTEGER NOT NULL DEFAULT 1 CHECK(use_implicit_tls IN (0, 1)),
	trust_invalid_imap_certs INTEGER NOT NULL DEFAULT 0 CHECK(trust_invalid_imap_certs IN (0, 1)),
	trust_invalid_smtp_certs INTEGER NOT NULL DEFAULT 0 CHECK(trust_invalid_smtp_certs IN (0, 1)),
	identity                 TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS identities (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	identity_key TEXT NOT NULL UNIQUE,
	email        TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_identities_email ON identities(email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_messages_account_id ON messages(account_id);

CREATE INDEX IF NOT EXISTS idx_messages_folder_date
	ON messages(folder, date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
