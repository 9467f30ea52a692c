package model

import (
	"time"

	"github.com/google/uuid"
)

// Address is a single mail participant. Either field may be empty; the
// address is not validated at this layer.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Attachment holds metadata (and optionally raw content) for a message part
// delivered or sent as an attachment.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data,omitempty"`
}

// Message is the canonical mail record shared by the transport adapter, the
// store, and the sync orchestrator.
//
// ID is globally unique within the store: a generated UUID for locally
// composed mail, "<accountID>:<uid>" for fetched mail. Date is an ISO-8601
// UTC timestamp string. Identity fields hold stable references of the form
// "identity:<key>" and stay empty until resolved.
type Message struct {
	ID            string       `json:"id"`
	From          Address      `json:"from"`
	FromIdentity  string       `json:"fromIdentity,omitempty"`
	To            []Address    `json:"to"`
	ToIdentities  []string     `json:"toIdentities,omitempty"`
	Cc            []Address    `json:"cc,omitempty"`
	CcIdentities  []string     `json:"ccIdentities,omitempty"`
	Bcc           []Address    `json:"bcc,omitempty"`
	BccIdentities []string     `json:"bccIdentities,omitempty"`
	Subject       string       `json:"subject"`
	Body          string       `json:"body"`
	HTMLBody      string       `json:"htmlBody,omitempty"`
	Date          string       `json:"date"`
	Read          bool         `json:"read"`
	Starred       bool         `json:"starred"`
	Folder        string       `json:"folder"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	AccountID     string       `json:"accountId,omitempty"`
	MessageID     string       `json:"messageId,omitempty"`
}

// OutboundMessage is the shape of a locally composed message handed to the
// send path. It carries no id, folder, or flags; those are assigned when the
// sent copy is recorded.
type OutboundMessage struct {
	From        Address      `json:"from"`
	To          []Address    `json:"to"`
	Cc          []Address    `json:"cc,omitempty"`
	Bcc         []Address    `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ConnectionTestResult is the outcome of a connection diagnostic. It is a
// value, not an error: test operations report failure through Message.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewMessage creates a locally-originated message with a fresh unique id,
// the current UTC time, and unread/unstarred defaults. Identity fields are
// left unset until resolved.
func NewMessage(from Address, to []Address, subject, body, folder string) Message {
	return Message{
		ID:      uuid.New().String(),
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
		Date:    time.Now().UTC().Format(time.RFC3339),
		Folder:  folder,
	}
}
