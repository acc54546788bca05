package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/metrics"
	"ProcureAI/internal/ports"
)

const syncLockKey = "proposal-sync"

// SyncDeps wires the driven adapters used by the inbox sync.
type SyncDeps struct {
	Store     ports.Store
	Inbox     ports.Inbox
	Extractor ports.ReplyExtractor
	Scorer    ports.ProposalScorer
	Locker    ports.Locker
	Events    ports.EventPublisher
	Logger    *slog.Logger
	Timeout   time.Duration
}

// Syncer turns vendor replies in the inbox into received, scored proposals.
type Syncer struct {
	store     ports.Store
	inbox     ports.Inbox
	extractor ports.ReplyExtractor
	scorer    ports.ProposalScorer
	locker    ports.Locker
	events    ports.EventPublisher
	logger    *slog.Logger
	timeout   time.Duration
}

// NewSyncer constructs the inbox sync workflow.
func NewSyncer(deps SyncDeps) *Syncer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:     deps.Store,
		inbox:     deps.Inbox,
		extractor: deps.Extractor,
		scorer:    deps.Scorer,
		locker:    deps.Locker,
		events:    deps.Events,
		logger:    logger,
		timeout:   deps.Timeout,
	}
}

// SyncProposals polls the inbox once. Only one run may be active at a time;
// a concurrent call returns domain.ErrSyncInProgress. Mailbox failures are
// logged and reported as an empty run.
func (s *Syncer) SyncProposals(ctx context.Context) (domain.SyncResult, error) {
	var result domain.SyncResult

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, syncLockKey)
		if err != nil {
			metrics.SyncRunsTotal.WithLabelValues("failed").Inc()
			return result, fmt.Errorf("acquire sync lock: %w", err)
		}
		if !ok {
			metrics.SyncRunsTotal.WithLabelValues("busy").Inc()
			return result, domain.ErrSyncInProgress
		}
		defer release()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	replies, err := s.inbox.Poll(ctx)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("inbox_error").Inc()
		s.logger.Error("poll inbox", "error", err)
		return result, nil
	}

	result.Candidates = len(replies)
	for _, reply := range replies {
		if ctx.Err() != nil {
			s.logger.Warn("sync interrupted", "error", ctx.Err(), "remaining", result.Candidates-result.Processed-result.Skipped)
			break
		}

		updated, err := s.processReply(ctx, reply)
		if err != nil {
			metrics.SyncEmailsTotal.WithLabelValues("failed").Inc()
			s.logger.Error("process vendor reply", "sender", reply.SenderEmail, "subject", reply.Subject, "error", err)
		}
		if updated {
			result.Processed++
		} else {
			result.Skipped++
		}
	}

	metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("inbox sync finished", "candidates", result.Candidates, "processed", result.Processed, "skipped", result.Skipped)
	return result, nil
}

func (s *Syncer) processReply(ctx context.Context, reply domain.InboundReply) (bool, error) {
	if reply.RFPID == nil {
		metrics.SyncEmailsTotal.WithLabelValues("untagged").Inc()
		s.logger.Debug("reply without rfp reference", "subject", reply.Subject)
		return false, nil
	}
	rfpID := *reply.RFPID

	vendor, err := s.store.FindVendorByEmail(ctx, reply.SenderEmail)
	if domain.IsNotFound(err) {
		metrics.SyncEmailsTotal.WithLabelValues("unknown_vendor").Inc()
		s.logger.Warn("reply from unknown vendor", "sender", reply.SenderEmail, "rfp_id", rfpID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find vendor: %w", err)
	}

	proposal, err := s.store.FindProposal(ctx, rfpID, vendor.ID)
	if domain.IsNotFound(err) {
		metrics.SyncEmailsTotal.WithLabelValues("no_proposal").Inc()
		s.logger.Warn("reply without matching proposal", "vendor_id", vendor.ID, "rfp_id", rfpID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find proposal: %w", err)
	}

	extracted, err := s.extractor.ExtractVendorReply(ctx, reply.Body)
	if err != nil {
		s.logger.Warn("extraction failed, storing raw reply", "proposal_id", proposal.ID, "error", err)
		extracted = domain.NewDocument()
	}

	if err := s.store.MarkProposalReceived(ctx, proposal.ID, reply.Body, extracted); err != nil {
		return false, fmt.Errorf("mark proposal %d received: %w", proposal.ID, err)
	}

	metrics.SyncEmailsTotal.WithLabelValues("processed").Inc()
	s.logger.Info("proposal received", "proposal_id", proposal.ID, "rfp_id", rfpID, "vendor", vendor.Name)
	publish(ctx, s.events, s.logger, domain.Event{
		Type:       domain.EventProposalReceived,
		RFPID:      rfpID,
		ProposalID: proposal.ID,
		VendorID:   vendor.ID,
		Detail:     vendor.Name,
	})

	s.rescore(ctx, rfpID)
	return true, nil
}

// rescore ranks every received proposal of the RFP again and stores the
// scores. Failures only affect scores, never the received state.
func (s *Syncer) rescore(ctx context.Context, rfpID int64) {
	if s.scorer == nil {
		return
	}

	rfp, err := s.store.GetRFPWithProposals(ctx, rfpID)
	if err != nil {
		s.logger.Error("load rfp for scoring", "rfp_id", rfpID, "error", err)
		return
	}

	candidates := make([]domain.ProposalCandidate, 0, len(rfp.Proposals))
	known := make(map[int64]bool, len(rfp.Proposals))
	for _, p := range rfp.Proposals {
		if !p.Received() {
			continue
		}
		vendor := ""
		if p.Vendor != nil {
			vendor = p.Vendor.Name
		}
		candidates = append(candidates, domain.ProposalCandidate{ID: p.ID, Vendor: vendor, ExtractedData: p.ExtractedData})
		known[p.ID] = true
	}
	if len(candidates) == 0 {
		return
	}

	scores := s.scorer.ScoreProposals(ctx, domain.RFPContext{
		Title:        rfp.Title,
		Budget:       rfp.Budget,
		Requirements: rfp.StructuredRequirements,
	}, candidates)

	for _, score := range scores {
		if !known[score.ProposalID] {
			s.logger.Warn("score for unknown proposal ignored", "proposal_id", score.ProposalID, "rfp_id", rfpID)
			continue
		}
		if err := s.store.UpdateProposalScore(ctx, score.ProposalID, score.Score, score.Summary); err != nil {
			s.logger.Error("store proposal score", "proposal_id", score.ProposalID, "error", err)
			continue
		}
		publish(ctx, s.events, s.logger, domain.Event{
			Type:       domain.EventProposalScored,
			RFPID:      rfpID,
			ProposalID: score.ProposalID,
			Detail:     fmt.Sprintf("%d/100 %s", score.Score, score.Summary),
		})
	}
}
