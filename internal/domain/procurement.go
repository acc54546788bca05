package domain

import "time"

// Vendor is a supplier that can be invited to quote on RFPs.
type Vendor struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	ContactPerson string    `db:"contact_person" json:"contactPerson"`
	Category      string    `db:"category" json:"category"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// RFPStatus enumerates the lifecycle of a request for proposal.
type RFPStatus string

const (
	RFPStatusDraft  RFPStatus = "draft"
	RFPStatusActive RFPStatus = "active"
	RFPStatusClosed RFPStatus = "closed"
)

// RFP is a structured purchase request sent out to vendors.
type RFP struct {
	ID                     int64      `db:"id" json:"id"`
	Title                  string     `db:"title" json:"title"`
	OriginalRequest        string     `db:"original_request" json:"originalRequest"`
	StructuredRequirements Document   `db:"structured_requirements" json:"structuredRequirements"`
	Status                 RFPStatus  `db:"status" json:"status"`
	Budget                 *int64     `db:"budget" json:"budget"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
	Proposals              []Proposal `db:"-" json:"proposals,omitempty"`
}

// ProposalStatus tracks whether the vendor has answered yet.
type ProposalStatus string

const (
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusReceived ProposalStatus = "received"
)

// Proposal links one vendor to one RFP and carries the vendor's reply.
type Proposal struct {
	ID            int64          `db:"id" json:"id"`
	RFPID         int64          `db:"rfp_id" json:"rfpId"`
	VendorID      int64          `db:"vendor_id" json:"vendorId"`
	Status        ProposalStatus `db:"status" json:"status"`
	RawContent    *string        `db:"raw_content" json:"rawContent"`
	ExtractedData Document       `db:"extracted_data" json:"extractedData"`
	AIScore       *int           `db:"ai_score" json:"aiScore"`
	AISummary     *string        `db:"ai_summary" json:"aiSummary"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	Vendor        *Vendor        `db:"-" json:"vendor,omitempty"`
}

// Received reports whether the vendor reply has been ingested.
func (p Proposal) Received() bool {
	return p.Status == ProposalStatusReceived
}

// ProposalScore is the AI ranking of a single received proposal.
type ProposalScore struct {
	ProposalID int64  `json:"proposalId"`
	Score      int    `json:"score"`
	Summary    string `json:"summary"`
}

// ProposalCandidate is what the scorer sees of a proposal.
type ProposalCandidate struct {
	ID            int64    `json:"id"`
	Vendor        string   `json:"vendor"`
	ExtractedData Document `json:"extractedData"`
}

// RFPContext summarises an RFP for scoring prompts.
type RFPContext struct {
	Title        string   `json:"title"`
	Budget       *int64   `json:"budget"`
	Requirements Document `json:"requirements"`
}

// InboundReply is a correlated vendor email pulled from the inbox.
type InboundReply struct {
	RFPID       *int64
	SenderEmail string
	Subject     string
	Body        string
}

// DeliveryReceipt is returned after an invitation left the SMTP relay.
type DeliveryReceipt struct {
	MessageID string
	Recipient string
	Subject   string
	SentAt    time.Time
}

// SendResult reports the outcome of dispatching an RFP.
type SendResult struct {
	SentCount        int `json:"sentCount"`
	ProposalsCreated int `json:"proposalsCreated"`
}

// SyncResult reports the outcome of one inbox sync run.
type SyncResult struct {
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Skipped    int `json:"skipped"`
}
