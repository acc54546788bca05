package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/ports"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var (
	vendorColumns   = []string{"id", "name", "email", "contact_person", "category", "created_at"}
	rfpColumns      = []string{"id", "title", "original_request", "structured_requirements", "status", "budget", "created_at"}
	proposalColumns = []string{"id", "rfp_id", "vendor_id", "status", "raw_content", "extracted_data", "ai_score", "ai_summary", "created_at"}
)

// PostgresRepository persists vendors, RFPs and proposals into Postgres.
type PostgresRepository struct {
	db  *sqlx.DB
	sql sq.StatementBuilderType
}

var _ ports.Store = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sqlx.DB implementation.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		sql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// ListVendors returns all vendors, newest first.
func (r *PostgresRepository) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	query, args, err := r.sql.Select(vendorColumns...).
		From("vendors").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list vendors: %w", err)
	}

	vendors := []domain.Vendor{}
	if err := r.db.SelectContext(ctx, &vendors, query, args...); err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

// GetVendorsByIDs returns the vendors that exist among ids, in id order.
func (r *PostgresRepository) GetVendorsByIDs(ctx context.Context, ids []int64) ([]domain.Vendor, error) {
	if len(ids) == 0 {
		return []domain.Vendor{}, nil
	}

	query, args, err := r.sql.Select(vendorColumns...).
		From("vendors").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build vendors by ids: %w", err)
	}

	vendors := []domain.Vendor{}
	if err := r.db.SelectContext(ctx, &vendors, query, args...); err != nil {
		return nil, fmt.Errorf("vendors by ids: %w", err)
	}
	return vendors, nil
}

// FindVendorByEmail matches the address case-insensitively.
func (r *PostgresRepository) FindVendorByEmail(ctx context.Context, email string) (*domain.Vendor, error) {
	email = strings.TrimSpace(email)
	query, args, err := r.sql.Select(vendorColumns...).
		From("vendors").
		Where("LOWER(email) = LOWER(?)", email).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build vendor by email: %w", err)
	}

	var vendor domain.Vendor
	if err := r.db.GetContext(ctx, &vendor, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "vendor", Key: email}
		}
		return nil, fmt.Errorf("vendor by email: %w", err)
	}
	return &vendor, nil
}

// CreateVendor inserts a vendor and fills its id and creation time.
func (r *PostgresRepository) CreateVendor(ctx context.Context, vendor *domain.Vendor) error {
	query, args, err := r.sql.Insert("vendors").
		Columns("name", "email", "contact_person", "category").
		Values(vendor.Name, strings.TrimSpace(vendor.Email), vendor.ContactPerson, vendor.Category).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create vendor: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&vendor.ID, &vendor.CreatedAt); err != nil {
		if pqCode(err) == pqUniqueViolation {
			return &domain.ConflictError{Message: fmt.Sprintf("vendor with email %s already exists", vendor.Email)}
		}
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

// CreateRFP inserts an RFP, defaulting its status to draft.
func (r *PostgresRepository) CreateRFP(ctx context.Context, rfp *domain.RFP) error {
	if rfp.Status == "" {
		rfp.Status = domain.RFPStatusDraft
	}

	query, args, err := r.sql.Insert("rfps").
		Columns("title", "original_request", "structured_requirements", "status", "budget").
		Values(rfp.Title, rfp.OriginalRequest, rfp.StructuredRequirements, rfp.Status, rfp.Budget).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create rfp: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&rfp.ID, &rfp.CreatedAt); err != nil {
		return fmt.Errorf("create rfp: %w", err)
	}
	return nil
}

// ListRFPs returns all RFPs, newest first, without proposals.
func (r *PostgresRepository) ListRFPs(ctx context.Context) ([]domain.RFP, error) {
	query, args, err := r.sql.Select(rfpColumns...).
		From("rfps").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rfps: %w", err)
	}

	rfps := []domain.RFP{}
	if err := r.db.SelectContext(ctx, &rfps, query, args...); err != nil {
		return nil, fmt.Errorf("list rfps: %w", err)
	}
	return rfps, nil
}

// GetRFP loads a single RFP without proposals.
func (r *PostgresRepository) GetRFP(ctx context.Context, id int64) (*domain.RFP, error) {
	query, args, err := r.sql.Select(rfpColumns...).
		From("rfps").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get rfp: %w", err)
	}

	var rfp domain.RFP
	if err := r.db.GetContext(ctx, &rfp, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "RFP", Key: id}
		}
		return nil, fmt.Errorf("get rfp %d: %w", id, err)
	}
	return &rfp, nil
}

type proposalRow struct {
	domain.Proposal
	VendorName          string    `db:"vendor_name"`
	VendorEmail         string    `db:"vendor_email"`
	VendorContactPerson string    `db:"vendor_contact_person"`
	VendorCategory      string    `db:"vendor_category"`
	VendorCreatedAt     time.Time `db:"vendor_created_at"`
}

// GetRFPWithProposals loads an RFP with every proposal and its vendor.
func (r *PostgresRepository) GetRFPWithProposals(ctx context.Context, id int64) (*domain.RFP, error) {
	rfp, err := r.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(proposalColumns)+5)
	for _, c := range proposalColumns {
		columns = append(columns, "p."+c)
	}
	columns = append(columns,
		"v.name AS vendor_name",
		"v.email AS vendor_email",
		"v.contact_person AS vendor_contact_person",
		"v.category AS vendor_category",
		"v.created_at AS vendor_created_at",
	)

	query, args, err := r.sql.Select(columns...).
		From("proposals p").
		Join("vendors v ON v.id = p.vendor_id").
		Where(sq.Eq{"p.rfp_id": id}).
		OrderBy("p.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build proposals: %w", err)
	}

	var rows []proposalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("proposals for rfp %d: %w", id, err)
	}

	rfp.Proposals = make([]domain.Proposal, 0, len(rows))
	for _, row := range rows {
		p := row.Proposal
		p.Vendor = &domain.Vendor{
			ID:            p.VendorID,
			Name:          row.VendorName,
			Email:         row.VendorEmail,
			ContactPerson: row.VendorContactPerson,
			Category:      row.VendorCategory,
			CreatedAt:     row.VendorCreatedAt,
		}
		rfp.Proposals = append(rfp.Proposals, p)
	}
	return rfp, nil
}

// UpdateRFPStatus moves an RFP to a new status.
func (r *PostgresRepository) UpdateRFPStatus(ctx context.Context, id int64, status domain.RFPStatus) error {
	query, args, err := r.sql.Update("rfps").
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update rfp status: %w", err)
	}
	return r.execOne(ctx, "RFP", id, query, args)
}

// FindProposal returns the proposal for an (RFP, vendor) pair.
func (r *PostgresRepository) FindProposal(ctx context.Context, rfpID, vendorID int64) (*domain.Proposal, error) {
	query, args, err := r.sql.Select(proposalColumns...).
		From("proposals").
		Where(sq.Eq{"rfp_id": rfpID, "vendor_id": vendorID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find proposal: %w", err)
	}

	var proposal domain.Proposal
	if err := r.db.GetContext(ctx, &proposal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "proposal", Key: fmt.Sprintf("rfp=%d vendor=%d", rfpID, vendorID)}
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	return &proposal, nil
}

// CreateProposal inserts a proposal unless one already exists for the pair.
// It reports whether a row was created.
func (r *PostgresRepository) CreateProposal(ctx context.Context, proposal *domain.Proposal) (bool, error) {
	if proposal.Status == "" {
		proposal.Status = domain.ProposalStatusSent
	}

	query, args, err := r.sql.Insert("proposals").
		Columns("rfp_id", "vendor_id", "status").
		Values(proposal.RFPID, proposal.VendorID, proposal.Status).
		Suffix("ON CONFLICT (rfp_id, vendor_id) DO NOTHING RETURNING id, created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build create proposal: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&proposal.ID, &proposal.CreatedAt)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case pqCode(err) == pqForeignKeyViolation:
		return false, &domain.NotFoundError{Entity: "RFP or vendor", Key: fmt.Sprintf("rfp=%d vendor=%d", proposal.RFPID, proposal.VendorID)}
	default:
		return false, fmt.Errorf("create proposal: %w", err)
	}
}

// MarkProposalReceived stores the vendor reply and flips the status.
func (r *PostgresRepository) MarkProposalReceived(ctx context.Context, id int64, rawContent string, extracted domain.Document) error {
	query, args, err := r.sql.Update("proposals").
		SetMap(map[string]any{
			"status":         domain.ProposalStatusReceived,
			"raw_content":    rawContent,
			"extracted_data": extracted,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark received: %w", err)
	}
	return r.execOne(ctx, "proposal", id, query, args)
}

// UpdateProposalScore persists the AI ranking of a proposal.
func (r *PostgresRepository) UpdateProposalScore(ctx context.Context, id int64, score int, summary string) error {
	query, args, err := r.sql.Update("proposals").
		Set("ai_score", score).
		Set("ai_summary", summary).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update score: %w", err)
	}
	return r.execOne(ctx, "proposal", id, query, args)
}

func (r *PostgresRepository) execOne(ctx context.Context, entity string, id int64, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", entity, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: entity, Key: id}
	}
	return nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
