package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/infrastructure/lock"
	"ProcureAI/internal/logging"
)

type syncFixture struct {
	store     *memStore
	inbox     *fakeInbox
	extractor *fakeExtractor
	scorer    *fakeScorer
	events    *recordingEvents
	syncer    *Syncer
	rfp       *domain.RFP
}

// newSyncFixture prepares RFP 7 sent to vendor a@x.com (id 10) and b@x.com (id 11).
func newSyncFixture(t *testing.T, replies ...domain.InboundReply) *syncFixture {
	t.Helper()
	ctx := context.Background()

	store := newMemStore(
		domain.Vendor{ID: 10, Name: "Alpha", Email: "a@x.com"},
		domain.Vendor{ID: 11, Name: "Beta", Email: "b@x.com"},
		domain.Vendor{ID: 12, Name: "Gamma", Email: "c@x.com"},
	)
	budget := int64(6000)
	rfp := &domain.RFP{ID: 7, Title: "Laptops", Status: domain.RFPStatusActive, Budget: &budget}
	store.rfps[7] = rfp

	for _, vendorID := range []int64{10, 11} {
		_, err := store.CreateProposal(ctx, &domain.Proposal{RFPID: 7, VendorID: vendorID})
		require.NoError(t, err)
	}

	f := &syncFixture{
		store:     store,
		inbox:     &fakeInbox{replies: replies},
		extractor: &fakeExtractor{doc: mustDocument(`{"totalPrice":5000,"currency":"USD","deliveryDate":"2 weeks"}`)},
		scorer:    &fakeScorer{},
		events:    &recordingEvents{},
		rfp:       rfp,
	}
	f.syncer = NewSyncer(SyncDeps{
		Store:     store,
		Inbox:     f.inbox,
		Extractor: f.extractor,
		Scorer:    f.scorer,
		Locker:    lock.NewLocalLocker(),
		Events:    f.events,
		Logger:    logging.Discard(),
		Timeout:   time.Minute,
	})
	return f
}

func TestSyncProposalsMarksReplyReceived(t *testing.T) {
	reply := domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "a@x.com", Subject: "Re: RFP-7", Body: "Total: $5000, delivery 2 weeks"}
	f := newSyncFixture(t, reply)

	proposal, _ := f.store.proposal(7, 10)
	f.scorer.scores = []domain.ProposalScore{{ProposalID: proposal.ID, Score: 82, Summary: "Under budget"}}

	result, err := f.syncer.SyncProposals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Candidates: 1, Processed: 1}, result)

	got, ok := f.store.proposal(7, 10)
	require.True(t, ok)
	assert.Equal(t, domain.ProposalStatusReceived, got.Status)
	require.NotNil(t, got.RawContent)
	assert.Equal(t, "Total: $5000, delivery 2 weeks", *got.RawContent)
	total, ok := got.ExtractedData.Number("totalPrice")
	require.True(t, ok)
	assert.InDelta(t, 5000, total, 0.001)
	require.NotNil(t, got.AIScore)
	assert.Equal(t, 82, *got.AIScore)
	assert.Equal(t, "Under budget", *got.AISummary)

	require.Len(t, f.scorer.candidates, 1, "only received proposals are scored")
	assert.Equal(t, "Alpha", f.scorer.candidates[0].Vendor)

	other, _ := f.store.proposal(7, 11)
	assert.Equal(t, domain.ProposalStatusSent, other.Status)
	assert.Nil(t, other.AIScore)

	assert.Equal(t, []domain.EventType{domain.EventProposalReceived, domain.EventProposalScored}, f.events.types())
}

func TestSyncProposalsSkipsUnmatchedReplies(t *testing.T) {
	f := newSyncFixture(t,
		domain.InboundReply{SenderEmail: "a@x.com", Subject: "Hello", Body: "no tag"},
		domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "stranger@y.com", Body: "Total: $1"},
		domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "c@x.com", Body: "never invited"},
		domain.InboundReply{RFPID: rfpRef(99), SenderEmail: "a@x.com", Body: "wrong rfp"},
	)

	result, err := f.syncer.SyncProposals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Candidates: 4, Skipped: 4}, result)
	assert.Zero(t, f.extractor.calls, "no model call for replies without a proposal")
	assert.Zero(t, f.scorer.calls)

	for _, vendorID := range []int64{10, 11} {
		p, _ := f.store.proposal(7, vendorID)
		assert.Equal(t, domain.ProposalStatusSent, p.Status)
	}
	_, ok := f.store.proposal(7, 12)
	assert.False(t, ok, "sync never creates proposals")
}

func TestSyncProposalsStoresRawReplyWhenExtractionFails(t *testing.T) {
	f := newSyncFixture(t, domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "b@x.com", Body: "see attached"})
	f.extractor.err = &domain.AIParseError{Operation: "extract_reply", Err: errors.New("invalid JSON")}

	result, err := f.syncer.SyncProposals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	got, _ := f.store.proposal(7, 11)
	assert.Equal(t, domain.ProposalStatusReceived, got.Status)
	assert.Equal(t, "see attached", *got.RawContent)
	assert.Zero(t, got.ExtractedData.Len())
}

func TestSyncProposalsIgnoresScoresForForeignProposals(t *testing.T) {
	f := newSyncFixture(t, domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "a@x.com", Body: "Total: $5000"})
	beta, _ := f.store.proposal(7, 11)
	f.scorer.scores = []domain.ProposalScore{
		{ProposalID: beta.ID, Score: 99, Summary: "not received yet"},
		{ProposalID: 4242, Score: 50, Summary: "hallucinated"},
	}

	_, err := f.syncer.SyncProposals(context.Background())
	require.NoError(t, err)

	got, _ := f.store.proposal(7, 11)
	assert.Nil(t, got.AIScore, "scores only land on received proposals of the rfp")
	assert.Empty(t, f.store.scores)
}

func TestSyncProposalsRescoresEveryReceivedProposal(t *testing.T) {
	f := newSyncFixture(t,
		domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "a@x.com", Body: "Total: $5000"},
		domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "b@x.com", Body: "Total: $5500"},
	)

	result, err := f.syncer.SyncProposals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, f.scorer.calls)
	assert.Len(t, f.scorer.candidates, 2, "second pass sees both received proposals")
}

func TestSyncProposalsInboxFailureIsEmptyRun(t *testing.T) {
	f := newSyncFixture(t)
	f.inbox.err = &domain.InboxError{Operation: "login", Err: errors.New("bad credentials")}

	result, err := f.syncer.SyncProposals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{}, result)
}

func TestSyncProposalsIsSingleFlight(t *testing.T) {
	f := newSyncFixture(t)
	f.inbox.block = make(chan struct{})
	f.inbox.started = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.syncer.SyncProposals(context.Background())
		done <- err
	}()
	<-f.inbox.started

	_, err := f.syncer.SyncProposals(context.Background())
	require.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(f.inbox.block)
	require.NoError(t, <-done)

	f.inbox.started = nil
	_, err = f.syncer.SyncProposals(context.Background())
	require.NoError(t, err, "lock is released after a run")
}

type stubDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *stubDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *stubDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsSync(t *testing.T) {
	f := newSyncFixture(t, domain.InboundReply{RFPID: rfpRef(7), SenderEmail: "a@x.com", Body: "Total: $5000"})
	driver := &stubDriver{}
	sched := NewScheduler(driver, f.syncer, logging.Discard())

	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)
	driver.job(time.Now())

	got, _ := f.store.proposal(7, 10)
	assert.Equal(t, domain.ProposalStatusReceived, got.Status)

	require.NoError(t, sched.Stop(context.Background()))
	assert.True(t, driver.stopped)
}
