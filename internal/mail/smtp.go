package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"missive/internal/model"
)

const smtpDialTimeout = 30 * time.Second

// Send assembles a MIME envelope from the outbound message and submits it
// over the account's SMTP endpoint. Malformed addresses fail with ParseError
// before any network I/O; transmission failures are SMTPError and are never
// retried.
func (c *Client) Send(_ context.Context, out model.OutboundMessage) error {
	raw, from, rcpts, err := composeOutbound(out, time.Now().UTC())
	if err != nil {
		return err
	}

	cli, err := c.dialSMTP()
	if err != nil {
		return err
	}
	defer cli.Close()

	if err := c.authSMTP(cli); err != nil {
		return err
	}

	if err := cli.Mail(from); err != nil {
		return &SMTPError{Op: "mail from", Err: err}
	}
	for _, rcpt := range rcpts {
		if err := cli.Rcpt(rcpt); err != nil {
			return &SMTPError{Op: "rcpt to", Err: err}
		}
	}

	w, err := cli.Data()
	if err != nil {
		return &SMTPError{Op: "data", Err: err}
	}
	if _, err := w.Write(raw); err != nil {
		return &SMTPError{Op: "write body", Err: err}
	}
	if err := w.Close(); err != nil {
		return &SMTPError{Op: "close body", Err: err}
	}

	if err := cli.Quit(); err != nil {
		return &SMTPError{Op: "quit", Err: err}
	}
	return nil
}

// TestSend verifies SMTP connectivity and credentials without submitting
// any mail.
func (c *Client) TestSend(_ context.Context) error {
	cli, err := c.dialSMTP()
	if err != nil {
		return err
	}
	defer cli.Close()

	if err := c.authSMTP(cli); err != nil {
		return err
	}
	return cli.Quit()
}

// dialSMTP connects to the account's SMTP endpoint, honoring the implicit
// TLS vs. STARTTLS policy and the certificate trust flag.
func (c *Client) dialSMTP() (*smtp.Client, error) {
	host := c.account.SMTPHost
	addr := net.JoinHostPort(host, strconv.Itoa(c.account.SMTPPort))

	tlsConfig := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: c.account.TrustInvalidSMTPCerts,
	}

	if c.account.UseImplicitTLS {
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: smtpDialTimeout},
			Config:    tlsConfig,
		}
		conn, err := dialer.Dial("tcp", addr)
		if err != nil {
			return nil, &SMTPError{Op: "dial " + addr, Err: err}
		}
		cli, err := smtp.NewClient(conn, host)
		if err != nil {
			conn.Close()
			return nil, &SMTPError{Op: "handshake", Err: err}
		}
		return cli, nil
	}

	conn, err := net.DialTimeout("tcp", addr, smtpDialTimeout)
	if err != nil {
		return nil, &SMTPError{Op: "dial " + addr, Err: err}
	}
	cli, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, &SMTPError{Op: "handshake", Err: err}
	}
	if err := cli.StartTLS(tlsConfig); err != nil {
		cli.Close()
		return nil, &SMTPError{Op: "starttls", Err: err}
	}
	return cli, nil
}

func (c *Client) authSMTP(cli *smtp.Client) error {
	auth := smtp.PlainAuth(
		"", c.account.Username, c.account.Password, c.account.SMTPHost,
	)
	if err := cli.Auth(auth); err != nil {
		return &SMTPError{Op: "auth", Err: err}
	}
	return nil
}

// composeOutbound renders the outbound message as wire-format MIME and
// returns the raw bytes plus the envelope sender and recipients. With
// attachments the body is multipart/mixed (one text part plus one part per
// attachment); otherwise it is a single text/plain part.
func composeOutbound(
	out model.OutboundMessage, now time.Time,
) (raw []byte, from string, rcpts []string, err error) {
	sender, err := validateAddress(out.From)
	if err != nil {
		return nil, "", nil, err
	}

	to, err := validateAddresses(out.To)
	if err != nil {
		return nil, "", nil, err
	}
	cc, err := validateAddresses(out.Cc)
	if err != nil {
		return nil, "", nil, err
	}
	bcc, err := validateAddresses(out.Bcc)
	if err != nil {
		return nil, "", nil, err
	}

	for _, a := range to {
		rcpts = append(rcpts, a.Address)
	}
	for _, a := range cc {
		rcpts = append(rcpts, a.Address)
	}
	for _, a := range bcc {
		rcpts = append(rcpts, a.Address)
	}
	if len(rcpts) == 0 {
		return nil, "", nil, &ParseError{Reason: "no recipients"}
	}

	var h gomail.Header
	h.SetDate(now)
	h.SetSubject(out.Subject)
	h.SetAddressList("From", []*gomail.Address{sender})
	h.SetAddressList("To", to)
	if len(cc) > 0 {
		h.SetAddressList("Cc", cc)
	}

	var buf bytes.Buffer
	if len(out.Attachments) > 0 {
		mw, err := gomail.CreateWriter(&buf, h)
		if err != nil {
			return nil, "", nil, &ParseError{Reason: "creating envelope", Err: err}
		}

		var ih gomail.InlineHeader
		ih.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		tw, err := mw.CreateSingleInline(ih)
		if err != nil {
			return nil, "", nil, &ParseError{Reason: "creating text part", Err: err}
		}
		if _, err := tw.Write([]byte(out.Body)); err != nil {
			return nil, "", nil, &ParseError{Reason: "writing text part", Err: err}
		}
		tw.Close()

		for _, att := range out.Attachments {
			var ah gomail.AttachmentHeader
			ah.SetFilename(att.Filename)
			ah.SetContentType(attachmentMediaType(att.MIMEType), nil)

			aw, err := mw.CreateAttachment(ah)
			if err != nil {
				return nil, "", nil, &ParseError{
					Reason: "creating attachment " + att.Filename, Err: err,
				}
			}
			if _, err := aw.Write(att.Data); err != nil {
				return nil, "", nil, &ParseError{
					Reason: "writing attachment " + att.Filename, Err: err,
				}
			}
			aw.Close()
		}

		mw.Close()
	} else {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := gomail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, "", nil, &ParseError{Reason: "creating envelope", Err: err}
		}
		if _, err := w.Write([]byte(out.Body)); err != nil {
			return nil, "", nil, &ParseError{Reason: "writing body", Err: err}
		}
		w.Close()
	}

	return buf.Bytes(), sender.Address, rcpts, nil
}

// validateAddress checks the address before any network I/O. An address
// with no display name renders as a bare address; otherwise as
// "Name <address>".
func validateAddress(a model.Address) (*gomail.Address, error) {
	if _, err := netmail.ParseAddress(a.Email); err != nil {
		return nil, &ParseError{Reason: "invalid address " + a.Email, Err: err}
	}
	return &gomail.Address{Name: a.Name, Address: a.Email}, nil
}

func validateAddresses(addrs []model.Address) ([]*gomail.Address, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	out := make([]*gomail.Address, 0, len(addrs))
	for _, a := range addrs {
		parsed, err := validateAddress(a)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

// attachmentMediaType returns the attachment's declared MIME type, falling
// back to a generic binary type when the declaration does not parse.
func attachmentMediaType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || mt == "" {
		return "application/octet-stream"
	}
	return mt
}
