package storage

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"ProcureAI/internal/domain"
	"ProcureAI/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending schema migration.
func Migrate(ctx context.Context, db *sqlx.DB, log *slog.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logger.New(log, "migrations"))

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// DefaultVendors is the directory used to bootstrap an empty database.
func DefaultVendors() []domain.Vendor {
	return []domain.Vendor{
		{Name: "TechDepot Solutions", Email: "sales@techdepot.example.com", ContactPerson: "Alice Johnson", Category: "Hardware"},
		{Name: "Pam Office Supplies", Email: "pam@officesupplies.example.com", ContactPerson: "Pam Beesly", Category: "Supplies"},
		{Name: "Global Hardware Inc.", Email: "quotes@globalhardware.example.com", ContactPerson: "Chirag Ghosh", Category: "Hardware"},
	}
}

// Seed inserts vendors when the vendor table is empty. It returns how many were added.
func (r *PostgresRepository) Seed(ctx context.Context, vendors []domain.Vendor) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vendors`); err != nil {
		return 0, fmt.Errorf("count vendors: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i := range vendors {
		if err := r.CreateVendor(ctx, &vendors[i]); err != nil {
			return i, fmt.Errorf("seed vendor %s: %w", vendors[i].Email, err)
		}
	}
	return len(vendors), nil
}
