package mail

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"missive/internal/model"
)

// parsed holds the decoded content of one raw RFC 5322 message.
type parsed struct {
	Subject     string
	From        []model.Address
	To          []model.Address
	Cc          []model.Address
	Bcc         []model.Address
	Date        time.Time
	MessageID   string
	TextBody    string
	HTMLBody    string
	Attachments []model.Attachment

	hasText bool
	hasHTML bool
}

// parseMessage decodes a raw message. Header-level failures (bad address
// lists, bad dates) degrade to safe defaults; only a message that cannot be
// read at all yields a ParseError. now is substituted when the Date header
// is absent or unparseable.
func parseMessage(raw []byte, now time.Time) (*parsed, error) {
	e, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, &ParseError{Reason: "reading message", Err: err}
	}

	h := gomail.Header{Header: e.Header}
	p := &parsed{Date: now.UTC()}

	if subject, err := h.Subject(); err == nil {
		p.Subject = subject
	} else {
		p.Subject = strings.TrimSpace(e.Header.Get("Subject"))
	}

	p.From = addressList(h, "From")
	p.To = addressList(h, "To")
	p.Cc = addressList(h, "Cc")
	p.Bcc = addressList(h, "Bcc")

	if d, err := h.Date(); err == nil && !d.IsZero() {
		p.Date = d.UTC()
	}

	if id, err := h.MessageID(); err == nil {
		p.MessageID = id
	}

	walkEntity(e, p)
	return p, nil
}

// addressList parses a recipient header into addresses. Absent or malformed
// lists yield nil, never an error: partial data is acceptable.
func addressList(h gomail.Header, key string) []model.Address {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		return nil
	}

	out := make([]model.Address, 0, len(list))
	for _, a := range list {
		out = append(out, model.Address{Name: a.Name, Email: a.Address})
	}
	return out
}

// walkEntity traverses the MIME part tree depth-first in pre-order. The
// first text/plain and first text/html leaves win; attachment parts
// contribute metadata only.
func walkEntity(e *message.Entity, p *parsed) {
	if mr := e.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				// Truncated part tree: keep what was decoded so far.
				return
			}
			walkEntity(part, p)
		}
		return
	}

	ctype, _, err := e.Header.ContentType()
	if err != nil {
		return
	}

	disp, _, _ := mime.ParseMediaType(e.Header.Get("Content-Disposition"))
	if disp == "attachment" {
		body, err := io.ReadAll(e.Body)
		if err != nil {
			return
		}
		ah := gomail.AttachmentHeader{Header: e.Header}
		filename, _ := ah.Filename()
		p.Attachments = append(p.Attachments, model.Attachment{
			ID:       uuid.New().String(),
			Filename: filename,
			Size:     int64(len(body)),
			MIMEType: ctype,
		})
		return
	}

	switch {
	case strings.HasPrefix(ctype, "text/plain") && !p.hasText:
		if body, err := io.ReadAll(e.Body); err == nil {
			p.TextBody = string(body)
			p.hasText = true
		}
	case strings.HasPrefix(ctype, "text/html") && !p.hasHTML:
		if body, err := io.ReadAll(e.Body); err == nil {
			p.HTMLBody = string(body)
			p.hasHTML = true
		}
	}
}
