package ports

import (
	"context"
	"time"

	"ProcureAI/internal/domain"
)

// VendorRepository reads and registers vendors.
type VendorRepository interface {
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	GetVendorsByIDs(ctx context.Context, ids []int64) ([]domain.Vendor, error)
	FindVendorByEmail(ctx context.Context, email string) (*domain.Vendor, error)
	CreateVendor(ctx context.Context, vendor *domain.Vendor) error
}

// RFPRepository persists requests for proposal.
type RFPRepository interface {
	CreateRFP(ctx context.Context, rfp *domain.RFP) error
	ListRFPs(ctx context.Context) ([]domain.RFP, error)
	GetRFP(ctx context.Context, id int64) (*domain.RFP, error)
	GetRFPWithProposals(ctx context.Context, id int64) (*domain.RFP, error)
	UpdateRFPStatus(ctx context.Context, id int64, status domain.RFPStatus) error
}

// ProposalRepository persists vendor proposals.
type ProposalRepository interface {
	FindProposal(ctx context.Context, rfpID, vendorID int64) (*domain.Proposal, error)
	CreateProposal(ctx context.Context, proposal *domain.Proposal) (bool, error)
	MarkProposalReceived(ctx context.Context, id int64, rawContent string, extracted domain.Document) error
	UpdateProposalScore(ctx context.Context, id int64, score int, summary string) error
}

// Store groups every repository the use cases need.
type Store interface {
	VendorRepository
	RFPRepository
	ProposalRepository
}

// RequestStructurer turns free text into a structured RFP document.
type RequestStructurer interface {
	StructureRequest(ctx context.Context, freeText string) (domain.Document, error)
}

// ReplyExtractor pulls commercial terms out of a vendor email.
type ReplyExtractor interface {
	ExtractVendorReply(ctx context.Context, emailText string) (domain.Document, error)
}

// ProposalScorer ranks proposals against their RFP.
type ProposalScorer interface {
	ScoreProposals(ctx context.Context, rfp domain.RFPContext, proposals []domain.ProposalCandidate) []domain.ProposalScore
}

// Mailer sends RFP invitations to vendors.
type Mailer interface {
	SendInvitation(ctx context.Context, vendor domain.Vendor, rfp domain.RFP) (domain.DeliveryReceipt, error)
}

// Inbox yields unseen vendor replies that carry a correlation tag.
type Inbox interface {
	Poll(ctx context.Context) ([]domain.InboundReply, error)
}

// Locker guards single-flight sections. Release must be called when ok.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// EventPublisher emits lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Scheduler controls when background jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
