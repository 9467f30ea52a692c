package mail

import (
	"context"

	"missive/internal/model"
)

// Transport is the protocol-facing surface of one mail account: message
// retrieval, submission, and connection diagnostics. The IMAP/SMTP client
// implements it; tests substitute fakes.
type Transport interface {
	// Fetch retrieves up to maxCount of the most recent messages in folder.
	Fetch(ctx context.Context, folder string, maxCount int) ([]model.Message, error)

	// Send submits an outbound message.
	Send(ctx context.Context, out model.OutboundMessage) error

	// TestFetch verifies retrieval-side connectivity and credentials.
	TestFetch(ctx context.Context) error

	// TestSend verifies submission-side connectivity and credentials.
	TestSend(ctx context.Context) error
}

// Factory builds a Transport bound to an account.
type Factory func(account model.Account) Transport

// NewTransport returns the IMAP/SMTP transport for the account.
func NewTransport(account model.Account) Transport {
	return NewClient(account)
}
