package mail

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"ProcureAI/internal/config"
	"ProcureAI/internal/domain"
	"ProcureAI/internal/infrastructure/parser"
	"ProcureAI/internal/logging"
)

type fakeMailbox struct {
	envelopes []envelope
	bodies    map[uint32]string
	fetched   []uint32
	closed    bool
}

func (f *fakeMailbox) Unseen() ([]envelope, error) { return f.envelopes, nil }

func (f *fakeMailbox) Fetch(uid uint32) (io.Reader, error) {
	f.fetched = append(f.fetched, uid)
	body, ok := f.bodies[uid]
	if !ok {
		return nil, errors.New("gone")
	}
	return strings.NewReader(body), nil
}

func (f *fakeMailbox) Close() error {
	f.closed = true
	return nil
}

func newTestInbox(mb mailbox, err error) *IMAPInbox {
	inbox := NewIMAPInbox(config.IMAPConfig{}, parser.NewReplyParser(nil, logging.Discard()), logging.Discard())
	inbox.connect = func(context.Context) (mailbox, error) { return mb, err }
	return inbox
}

func TestPollOnlyFetchesTaggedMessages(t *testing.T) {
	t.Parallel()

	mb := &fakeMailbox{
		envelopes: []envelope{
			{UID: 1, Subject: "Re: [RFP-42] Request for Proposal: Chairs"},
			{UID: 2, Subject: "Lunch on Friday?"},
			{UID: 3, Subject: "RE: rfp-43 quote"},
		},
		bodies: map[uint32]string{
			1: "From: a@x.com\r\nSubject: Re: [RFP-42] Request for Proposal: Chairs\r\n\r\nPrice 100\r\n",
		},
	}

	replies, err := newTestInbox(mb, nil).Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(mb.fetched) != 2 || mb.fetched[0] != 1 || mb.fetched[1] != 3 {
		t.Fatalf("untagged mail must stay unseen, fetched %v", mb.fetched)
	}
	if len(replies) != 1 {
		t.Fatalf("expected one parsed reply, got %d", len(replies))
	}
	if *replies[0].RFPID != 42 || replies[0].SenderEmail != "a@x.com" || replies[0].Body != "Price 100" {
		t.Fatalf("unexpected reply %+v", replies[0])
	}
	if !mb.closed {
		t.Fatalf("mailbox must be closed")
	}
}

func TestPollConnectionFailure(t *testing.T) {
	t.Parallel()

	replies, err := newTestInbox(nil, errors.New("dial tcp: refused")).Poll(context.Background())
	var inboxErr *domain.InboxError
	if !errors.As(err, &inboxErr) {
		t.Fatalf("expected InboxError, got %v", err)
	}
	if len(replies) != 0 {
		t.Fatalf("expected no replies")
	}
}

func TestDialRequiresAccount(t *testing.T) {
	t.Parallel()

	inbox := NewIMAPInbox(config.IMAPConfig{}, parser.NewReplyParser(nil, nil), logging.Discard())
	if _, err := inbox.Poll(context.Background()); err == nil {
		t.Fatalf("expected error without imap account")
	}
}
