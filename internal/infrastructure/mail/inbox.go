package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"ProcureAI/internal/config"
	"ProcureAI/internal/domain"
	"ProcureAI/internal/infrastructure/parser"
	"ProcureAI/internal/ports"
)

type envelope struct {
	UID     uint32
	Subject string
}

// mailbox is the subset of IMAP the inbox needs.
type mailbox interface {
	// Unseen lists unseen messages without changing their flags.
	Unseen() ([]envelope, error)
	// Fetch downloads the full message, which marks it seen.
	Fetch(uid uint32) (io.Reader, error)
	Close() error
}

// IMAPInbox polls the reply mailbox for vendor responses.
type IMAPInbox struct {
	cfg     config.IMAPConfig
	parser  *parser.ReplyParser
	logger  *slog.Logger
	connect func(ctx context.Context) (mailbox, error)
}

var _ ports.Inbox = (*IMAPInbox)(nil)

// NewIMAPInbox builds an inbox over the configured IMAPS account.
func NewIMAPInbox(cfg config.IMAPConfig, replyParser *parser.ReplyParser, logger *slog.Logger) *IMAPInbox {
	if logger == nil {
		logger = slog.Default()
	}
	inbox := &IMAPInbox{cfg: cfg, parser: replyParser, logger: logger}
	inbox.connect = inbox.dial
	return inbox
}

// Poll returns unseen messages whose subject carries an RFP tag.
// Messages without a tag are left unseen.
func (i *IMAPInbox) Poll(ctx context.Context) ([]domain.InboundReply, error) {
	mb, err := i.connect(ctx)
	if err != nil {
		return nil, &domain.InboxError{Operation: "connect", Err: err}
	}
	defer func() {
		if err := mb.Close(); err != nil {
			i.logger.Debug("close mailbox", "error", err)
		}
	}()

	envelopes, err := mb.Unseen()
	if err != nil {
		return nil, &domain.InboxError{Operation: "search", Err: err}
	}

	replies := []domain.InboundReply{}
	for _, env := range envelopes {
		if ctx.Err() != nil {
			i.logger.Warn("poll interrupted", "error", ctx.Err(), "collected", len(replies))
			break
		}
		if _, ok := domain.ParseCorrelationTag(env.Subject); !ok {
			continue
		}

		raw, err := mb.Fetch(env.UID)
		if err != nil {
			i.logger.Error("fetch message", "uid", env.UID, "error", err)
			continue
		}

		reply, err := i.parser.Parse(ctx, raw)
		if err != nil {
			i.logger.Error("parse message", "uid", env.UID, "subject", env.Subject, "error", err)
			continue
		}
		replies = append(replies, reply)
	}

	i.logger.Debug("inbox polled", "unseen", len(envelopes), "matched", len(replies))
	return replies, nil
}

func (i *IMAPInbox) dial(ctx context.Context) (mailbox, error) {
	if i.cfg.Host == "" || i.cfg.Username == "" {
		return nil, errors.New("imap account is not configured")
	}

	addr := net.JoinHostPort(i.cfg.Host, strconv.Itoa(i.cfg.Port))
	dialer := &net.Dialer{Timeout: i.cfg.Timeout}
	c, err := client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: i.cfg.Host})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c.Timeout = i.cfg.Timeout

	if err := c.Login(i.cfg.Username, i.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login: %w", err)
	}

	name := i.cfg.Mailbox
	if name == "" {
		name = "INBOX"
	}
	if _, err := c.Select(name, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		_ = c.Logout()
		return nil, err
	}
	return &imapMailbox{c: c}, nil
}

type imapMailbox struct {
	c *client.Client
}

func (m *imapMailbox) Unseen() ([]envelope, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := m.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- m.c.UidFetch(seqset, []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope}, messages)
	}()

	var out []envelope
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		out = append(out, envelope{UID: msg.Uid, Subject: msg.Envelope.Subject})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch envelopes: %w", err)
	}
	return out, nil
}

func (m *imapMailbox) Fetch(uid uint32) (io.Reader, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.c.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var body imap.Literal
	for msg := range messages {
		if literal := msg.GetBody(section); literal != nil {
			body = literal
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch body: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("message %d has no body", uid)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return bytes.NewReader(data), nil
}

func (m *imapMailbox) Close() error {
	return m.c.Logout()
}
