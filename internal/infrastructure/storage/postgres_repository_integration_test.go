//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/logging"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "procure",
			"POSTGRES_PASSWORD": "procure",
			"POSTGRES_DB":       "procure",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://procure:procure@%s:%s/procure?sslmode=disable", host, port.Port())
}

func newRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db, logging.Discard()))
	return NewPostgresRepository(db)
}

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	seeded, err := repo.Seed(ctx, DefaultVendors())
	require.NoError(t, err)
	require.Equal(t, 3, seeded)

	seeded, err = repo.Seed(ctx, DefaultVendors())
	require.NoError(t, err)
	require.Zero(t, seeded, "seed must only run on an empty table")

	vendors, err := repo.ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 3)

	found, err := repo.FindVendorByEmail(ctx, "SALES@TechDepot.example.com")
	require.NoError(t, err)
	require.Equal(t, "TechDepot Solutions", found.Name)

	_, err = repo.FindVendorByEmail(ctx, "nobody@example.com")
	require.True(t, domain.IsNotFound(err))

	dup := domain.Vendor{Name: "Dup", Email: found.Email}
	var conflict *domain.ConflictError
	require.ErrorAs(t, repo.CreateVendor(ctx, &dup), &conflict)

	doc, err := domain.ParseDocument([]byte(`{"title":"Laptops","requirements":[{"item":"Laptop","quantity":20}]}`))
	require.NoError(t, err)
	budget := int64(50000)
	rfp := domain.RFP{Title: "Laptops", OriginalRequest: "  need 20 laptops ", StructuredRequirements: doc, Budget: &budget}
	require.NoError(t, repo.CreateRFP(ctx, &rfp))
	require.NotZero(t, rfp.ID)
	require.Equal(t, domain.RFPStatusDraft, rfp.Status)

	loaded, err := repo.GetRFP(ctx, rfp.ID)
	require.NoError(t, err)
	require.Equal(t, "  need 20 laptops ", loaded.OriginalRequest)
	require.Equal(t, []string{"title", "requirements"}, loaded.StructuredRequirements.Keys())
	require.Equal(t, budget, *loaded.Budget)

	_, err = repo.GetRFP(ctx, rfp.ID+100)
	require.True(t, domain.IsNotFound(err))

	proposal := domain.Proposal{RFPID: rfp.ID, VendorID: found.ID}
	created, err := repo.CreateProposal(ctx, &proposal)
	require.NoError(t, err)
	require.True(t, created)

	again := domain.Proposal{RFPID: rfp.ID, VendorID: found.ID}
	created, err = repo.CreateProposal(ctx, &again)
	require.NoError(t, err)
	require.False(t, created, "second proposal for the same pair must not be inserted")

	orphan := domain.Proposal{RFPID: rfp.ID, VendorID: 9999}
	_, err = repo.CreateProposal(ctx, &orphan)
	require.True(t, domain.IsNotFound(err))

	extracted, err := domain.ParseDocument([]byte(`{"totalPrice":5000,"currency":"USD"}`))
	require.NoError(t, err)
	require.NoError(t, repo.MarkProposalReceived(ctx, proposal.ID, "Total: $5000", extracted))
	require.NoError(t, repo.UpdateProposalScore(ctx, proposal.ID, 88, "Solid offer"))
	require.NoError(t, repo.UpdateRFPStatus(ctx, rfp.ID, domain.RFPStatusActive))

	full, err := repo.GetRFPWithProposals(ctx, rfp.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RFPStatusActive, full.Status)
	require.Len(t, full.Proposals, 1)

	got := full.Proposals[0]
	require.Equal(t, domain.ProposalStatusReceived, got.Status)
	require.Equal(t, "Total: $5000", *got.RawContent)
	require.Equal(t, 88, *got.AIScore)
	require.Equal(t, "Solid offer", *got.AISummary)
	require.NotNil(t, got.Vendor)
	require.Equal(t, found.Email, got.Vendor.Email)

	total, ok := got.ExtractedData.Number("totalPrice")
	require.True(t, ok)
	require.InDelta(t, 5000, total, 0.001)

	require.True(t, domain.IsNotFound(repo.UpdateProposalScore(ctx, 424242, 10, "x")))
}
