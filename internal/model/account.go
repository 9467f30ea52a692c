package model

import "github.com/google/uuid"

// Account is a mail-server connection profile. Email is the mailbox address
// the account represents; it is unique in the store, as is ID.
//
// UseImplicitTLS selects implicit TLS for both IMAP and SMTP; when false the
// transport dials plain TCP and upgrades with STARTTLS. The two trust flags
// independently disable certificate validation for each protocol.
type Account struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Name                  string `json:"name"`
	IMAPHost              string `json:"imapServer"`
	IMAPPort              int    `json:"imapPort"`
	SMTPHost              string `json:"smtpServer"`
	SMTPPort              int    `json:"smtpPort"`
	Username              string `json:"username"`
	Password              string `json:"password"`
	UseImplicitTLS        bool   `json:"useSsl"`
	TrustInvalidIMAPCerts bool   `json:"allowInvalidCerts"`
	TrustInvalidSMTPCerts bool   `json:"allowInvalidSmtpCerts"`
	Identity              string `json:"identity,omitempty"`
}

// NewAccount creates an account profile with a fresh unique id.
func NewAccount(email, name string) Account {
	return Account{
		ID:    uuid.New().String(),
		Email: email,
		Name:  name,
	}
}
