package domain

import "time"

// EventType names a lifecycle event published to the event bus.
type EventType string

const (
	EventRFPGenerated     EventType = "rfp.generated"
	EventRFPSent          EventType = "rfp.sent"
	EventProposalCreated  EventType = "proposal.created"
	EventProposalReceived EventType = "proposal.received"
	EventProposalScored   EventType = "proposal.scored"
)

// Event is a lifecycle notification about an RFP or one of its proposals.
type Event struct {
	Type       EventType `json:"type"`
	RFPID      int64     `json:"rfpId"`
	ProposalID int64     `json:"proposalId,omitempty"`
	VendorID   int64     `json:"vendorId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
