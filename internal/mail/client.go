package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"missive/internal/model"
)

// Client is the IMAP/SMTP transport bound to a single account.
type Client struct {
	account model.Account
}

// NewClient creates a transport client for the given account.
func NewClient(account model.Account) *Client {
	return &Client{account: account}
}

func (c *Client) imapAddr() string {
	return net.JoinHostPort(c.account.IMAPHost, strconv.Itoa(c.account.IMAPPort))
}

// connect dials the account's IMAP endpoint and authenticates, returning
// the connected client. The caller is responsible for Logout.
func (c *Client) connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.imapAddr()

	var opts imapclient.Options
	if c.account.TrustInvalidIMAPCerts {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var cli *imapclient.Client
	var err error
	if c.account.UseImplicitTLS {
		cli, err = imapclient.DialTLS(addr, &opts)
	} else {
		cli, err = imapclient.DialStartTLS(addr, &opts)
	}
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	if err := cli.Login(c.account.Username, c.account.Password).Wait(); err != nil {
		_ = cli.Logout().Wait()
		return nil, &AuthError{Username: c.account.Username, Err: err}
	}

	return cli, nil
}

// Fetch retrieves the most recent maxCount messages from folder, fully
// parsed into canonical records. An empty folder yields an empty slice.
// Logout is attempted even when the fetch fails partway.
func (c *Client) Fetch(
	ctx context.Context, folder string, maxCount int,
) ([]model.Message, error) {
	cli, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Logout().Wait() }()

	if _, err := cli.Select(folder, nil).Wait(); err != nil {
		return nil, &ProtocolError{Op: "select " + folder, Err: err}
	}

	searchData, err := cli.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, &ProtocolError{Op: "uid search", Err: err}
	}

	uids := limitUIDs(searchData.AllUIDs(), maxCount)
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := cli.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	now := time.Now().UTC()
	var messages []model.Message
	for {
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			return nil, &ProtocolError{Op: "collect", Err: err}
		}

		raw := buf.FindBodySection(bodySection)
		if len(raw) == 0 {
			return nil, &ParseError{
				Reason: fmt.Sprintf("empty body for uid %d", buf.UID),
			}
		}

		p, err := parseMessage(raw, now)
		if err != nil {
			return nil, err
		}

		messages = append(messages, c.toMessage(p, buf, folder))
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, &ProtocolError{Op: "fetch", Err: err}
	}

	return messages, nil
}

// toMessage maps one parsed message plus its IMAP metadata to the canonical
// record. The external id joins the account id with the protocol-assigned
// UID, guaranteeing per-account uniqueness.
func (c *Client) toMessage(
	p *parsed, buf *imapclient.FetchMessageBuffer, folder string,
) model.Message {
	from := model.Address{}
	if len(p.From) > 0 {
		from = p.From[0]
	}

	to := p.To
	if to == nil {
		to = []model.Address{}
	}

	read := false
	for _, flag := range buf.Flags {
		if flag == imap.FlagSeen {
			read = true
			break
		}
	}

	return model.Message{
		ID:          fmt.Sprintf("%s:%d", c.account.ID, buf.UID),
		From:        from,
		To:          to,
		Cc:          p.Cc,
		Bcc:         p.Bcc,
		Subject:     p.Subject,
		Body:        p.TextBody,
		HTMLBody:    p.HTMLBody,
		Date:        p.Date.Format(time.RFC3339),
		Read:        read,
		Folder:      folder,
		Attachments: p.Attachments,
		AccountID:   c.account.ID,
		MessageID:   p.MessageID,
	}
}

// TestFetch verifies IMAP connectivity and credentials without
// transferring any data.
func (c *Client) TestFetch(ctx context.Context) error {
	cli, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return cli.Logout().Wait()
}

// limitUIDs sorts uids ascending (ascending identifiers are assumed
// chronological) and keeps the trailing max entries. max <= 0 means no
// limit.
func limitUIDs(uids []imap.UID, max int) []imap.UID {
	sorted := make([]imap.UID, len(uids))
	copy(sorted, uids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if max > 0 && len(sorted) > max {
		sorted = sorted[len(sorted)-max:]
	}
	return sorted
}
