package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ProcureAI/internal/domain"
)

type memStore struct {
	mu        sync.Mutex
	vendors   []domain.Vendor
	rfps      map[int64]*domain.RFP
	proposals []domain.Proposal
	nextID    int64
	scores    map[int64]int
}

func newMemStore(vendors ...domain.Vendor) *memStore {
	return &memStore{
		vendors: vendors,
		rfps:    map[int64]*domain.RFP{},
		scores:  map[int64]int{},
		nextID:  100,
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) ListVendors(context.Context) ([]domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Vendor(nil), s.vendors...), nil
}

func (s *memStore) GetVendorsByIDs(_ context.Context, ids []int64) ([]domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Vendor
	for _, v := range s.vendors {
		for _, id := range ids {
			if v.ID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (s *memStore) FindVendorByEmail(_ context.Context, email string) (*domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vendors {
		if strings.EqualFold(v.Email, email) {
			found := v
			return &found, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "vendor", Key: email}
}

func (s *memStore) CreateVendor(_ context.Context, vendor *domain.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vendors {
		if strings.EqualFold(v.Email, vendor.Email) {
			return &domain.ConflictError{Message: "Vendor with this email already exists"}
		}
	}
	vendor.ID = s.id()
	vendor.CreatedAt = time.Now()
	s.vendors = append(s.vendors, *vendor)
	return nil
}

func (s *memStore) CreateRFP(_ context.Context, rfp *domain.RFP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rfp.ID = s.id()
	if rfp.Status == "" {
		rfp.Status = domain.RFPStatusDraft
	}
	stored := *rfp
	s.rfps[rfp.ID] = &stored
	return nil
}

func (s *memStore) ListRFPs(context.Context) ([]domain.RFP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RFP, 0, len(s.rfps))
	for _, r := range s.rfps {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) GetRFP(_ context.Context, id int64) (*domain.RFP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rfps[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "rfp", Key: id}
	}
	out := *r
	return &out, nil
}

func (s *memStore) GetRFPWithProposals(ctx context.Context, id int64) (*domain.RFP, error) {
	rfp, err := s.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proposals {
		if p.RFPID != id {
			continue
		}
		for _, v := range s.vendors {
			if v.ID == p.VendorID {
				vendor := v
				p.Vendor = &vendor
			}
		}
		rfp.Proposals = append(rfp.Proposals, p)
	}
	return rfp, nil
}

func (s *memStore) UpdateRFPStatus(_ context.Context, id int64, status domain.RFPStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rfps[id]
	if !ok {
		return &domain.NotFoundError{Entity: "rfp", Key: id}
	}
	r.Status = status
	return nil
}

func (s *memStore) FindProposal(_ context.Context, rfpID, vendorID int64) (*domain.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proposals {
		if p.RFPID == rfpID && p.VendorID == vendorID {
			found := p
			return &found, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "proposal", Key: rfpID}
}

func (s *memStore) CreateProposal(_ context.Context, proposal *domain.Proposal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proposals {
		if p.RFPID == proposal.RFPID && p.VendorID == proposal.VendorID {
			return false, nil
		}
	}
	proposal.ID = s.id()
	if proposal.Status == "" {
		proposal.Status = domain.ProposalStatusSent
	}
	s.proposals = append(s.proposals, *proposal)
	return true, nil
}

func (s *memStore) MarkProposalReceived(_ context.Context, id int64, raw string, extracted domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.proposals {
		if s.proposals[i].ID == id {
			s.proposals[i].Status = domain.ProposalStatusReceived
			s.proposals[i].RawContent = &raw
			s.proposals[i].ExtractedData = extracted
			return nil
		}
	}
	return &domain.NotFoundError{Entity: "proposal", Key: id}
}

func (s *memStore) UpdateProposalScore(_ context.Context, id int64, score int, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.proposals {
		if s.proposals[i].ID == id {
			s.proposals[i].AIScore = &score
			s.proposals[i].AISummary = &summary
			s.scores[id]++
			return nil
		}
	}
	return &domain.NotFoundError{Entity: "proposal", Key: id}
}

func (s *memStore) proposal(rfpID, vendorID int64) (domain.Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proposals {
		if p.RFPID == rfpID && p.VendorID == vendorID {
			return p, true
		}
	}
	return domain.Proposal{}, false
}

type fakeStructurer struct {
	doc domain.Document
	err error
}

func (f *fakeStructurer) StructureRequest(context.Context, string) (domain.Document, error) {
	return f.doc, f.err
}

type fakeExtractor struct {
	doc   domain.Document
	err   error
	calls int
}

func (f *fakeExtractor) ExtractVendorReply(context.Context, string) (domain.Document, error) {
	f.calls++
	return f.doc, f.err
}

type fakeScorer struct {
	scores     []domain.ProposalScore
	candidates []domain.ProposalCandidate
	calls      int
}

func (f *fakeScorer) ScoreProposals(_ context.Context, _ domain.RFPContext, candidates []domain.ProposalCandidate) []domain.ProposalScore {
	f.calls++
	f.candidates = candidates
	return f.scores
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []string
	failOn string
}

func (f *fakeMailer) SendInvitation(_ context.Context, vendor domain.Vendor, rfp domain.RFP) (domain.DeliveryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vendor.Email == f.failOn {
		return domain.DeliveryReceipt{}, &domain.DeliveryError{Recipient: vendor.Email, Err: context.DeadlineExceeded}
	}
	f.sent = append(f.sent, vendor.Email)
	return domain.DeliveryReceipt{Recipient: vendor.Email, Subject: domain.InvitationSubject(rfp)}, nil
}

type fakeInbox struct {
	replies []domain.InboundReply
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeInbox) Poll(context.Context) ([]domain.InboundReply, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.replies, f.err
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingEvents) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func mustDocument(raw string) domain.Document {
	doc, err := domain.ParseDocument([]byte(raw))
	if err != nil {
		panic(err)
	}
	return doc
}

func rfpRef(id int64) *int64 {
	return &id
}
