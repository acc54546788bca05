package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/ports"
)

const defaultRFPTitle = "New RFP"

// ProcurementDeps wires the driven adapters used by request-path operations.
type ProcurementDeps struct {
	Store      ports.Store
	Structurer ports.RequestStructurer
	Mailer     ports.Mailer
	Events     ports.EventPublisher
	Logger     *slog.Logger
}

// Procurement implements RFP creation, vendor directory and dispatch.
type Procurement struct {
	store      ports.Store
	structurer ports.RequestStructurer
	mailer     ports.Mailer
	events     ports.EventPublisher
	logger     *slog.Logger
}

// NewProcurement constructs the request-path use cases.
func NewProcurement(deps ProcurementDeps) *Procurement {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Procurement{
		store:      deps.Store,
		structurer: deps.Structurer,
		mailer:     deps.Mailer,
		events:     deps.Events,
		logger:     logger,
	}
}

// GenerateRFP structures a free-text request and stores it as a draft RFP.
// The original text is stored verbatim.
func (p *Procurement) GenerateRFP(ctx context.Context, prompt string) (*domain.RFP, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.NewValidationError("Prompt is required")
	}

	structured, err := p.structurer.StructureRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	title := structured.String("title")
	if title == "" {
		title = defaultRFPTitle
	}

	rfp := &domain.RFP{
		Title:                  title,
		OriginalRequest:        prompt,
		StructuredRequirements: structured,
		Status:                 domain.RFPStatusDraft,
		Budget:                 budgetFrom(structured),
	}
	if err := p.store.CreateRFP(ctx, rfp); err != nil {
		return nil, fmt.Errorf("create rfp: %w", err)
	}

	p.logger.Info("rfp generated", "rfp_id", rfp.ID, "title", rfp.Title)
	p.publish(ctx, domain.Event{Type: domain.EventRFPGenerated, RFPID: rfp.ID})
	return rfp, nil
}

// ListVendors returns the vendor directory, newest first.
func (p *Procurement) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return p.store.ListVendors(ctx)
}

// CreateVendor registers a new vendor.
func (p *Procurement) CreateVendor(ctx context.Context, vendor domain.Vendor) (*domain.Vendor, error) {
	vendor.Name = strings.TrimSpace(vendor.Name)
	vendor.Email = strings.ToLower(strings.TrimSpace(vendor.Email))
	if vendor.Name == "" || vendor.Email == "" {
		return nil, domain.NewValidationError("Name and email are required")
	}

	if err := p.store.CreateVendor(ctx, &vendor); err != nil {
		return nil, err
	}
	p.logger.Info("vendor created", "vendor_id", vendor.ID, "email", vendor.Email)
	return &vendor, nil
}

// ListRFPs returns every RFP, newest first.
func (p *Procurement) ListRFPs(ctx context.Context) ([]domain.RFP, error) {
	return p.store.ListRFPs(ctx)
}

// GetRFP returns an RFP with its proposals and their vendors.
func (p *Procurement) GetRFP(ctx context.Context, id int64) (*domain.RFP, error) {
	return p.store.GetRFPWithProposals(ctx, id)
}

// SendRFP emails the RFP to each selected vendor and opens a proposal per
// vendor. Re-sending never creates a second proposal for the same vendor.
func (p *Procurement) SendRFP(ctx context.Context, rfpID int64, vendorIDs []int64) (domain.SendResult, error) {
	var result domain.SendResult
	if len(vendorIDs) == 0 {
		return result, domain.NewValidationError("No vendors selected")
	}

	rfp, err := p.store.GetRFP(ctx, rfpID)
	if err != nil {
		return result, err
	}

	vendors, err := p.store.GetVendorsByIDs(ctx, uniqueIDs(vendorIDs))
	if err != nil {
		return result, fmt.Errorf("load vendors: %w", err)
	}
	if len(vendors) == 0 {
		return result, &domain.NotFoundError{Entity: "vendors", Key: vendorIDs}
	}

	for _, vendor := range vendors {
		if _, err := p.mailer.SendInvitation(ctx, vendor, *rfp); err != nil {
			return result, err
		}
		result.SentCount++

		created, err := p.ensureProposal(ctx, rfp.ID, vendor.ID)
		if err != nil {
			return result, err
		}
		if created {
			result.ProposalsCreated++
		}
	}

	if rfp.Status == domain.RFPStatusDraft {
		if err := p.store.UpdateRFPStatus(ctx, rfp.ID, domain.RFPStatusActive); err != nil {
			return result, fmt.Errorf("activate rfp: %w", err)
		}
	}

	p.logger.Info("rfp sent", "rfp_id", rfp.ID, "sent", result.SentCount, "proposals_created", result.ProposalsCreated)
	p.publish(ctx, domain.Event{Type: domain.EventRFPSent, RFPID: rfp.ID})
	return result, nil
}

func (p *Procurement) ensureProposal(ctx context.Context, rfpID, vendorID int64) (bool, error) {
	_, err := p.store.FindProposal(ctx, rfpID, vendorID)
	if err == nil {
		return false, nil
	}
	if !domain.IsNotFound(err) {
		return false, fmt.Errorf("find proposal: %w", err)
	}

	proposal := &domain.Proposal{RFPID: rfpID, VendorID: vendorID, Status: domain.ProposalStatusSent}
	created, err := p.store.CreateProposal(ctx, proposal)
	if err != nil {
		return false, fmt.Errorf("create proposal: %w", err)
	}
	if created {
		p.publish(ctx, domain.Event{Type: domain.EventProposalCreated, RFPID: rfpID, ProposalID: proposal.ID, VendorID: vendorID})
	}
	return created, nil
}

func (p *Procurement) publish(ctx context.Context, event domain.Event) {
	publish(ctx, p.events, p.logger, event)
}

func publish(ctx context.Context, events ports.EventPublisher, logger *slog.Logger, event domain.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("publish event", "type", event.Type, "rfp_id", event.RFPID, "error", err)
	}
}

func budgetFrom(doc domain.Document) *int64 {
	v, ok := doc.Number("budget")
	if !ok || v < 0 {
		return nil
	}
	budget := int64(math.Round(v))
	return &budget
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
