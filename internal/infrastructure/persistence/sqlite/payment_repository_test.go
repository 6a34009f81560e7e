package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/team"
	sqlitestore "github.com/rcarvalho-pb/payment_lifecycle-go/internal/infrastructure/persistence/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlitestore.RunMigrations(db))
	return db
}

func testPayment(id string) *payment.Payment {
	created := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return &payment.Payment{
		ID:        id,
		PaymentID: "ext-" + id,
		TeamID:    "team-1",
		OrderID:   "order-" + id,
		Amount:    1500,
		Currency:  "BRL",
		Status:    payment.StatusNew,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestPaymentRepository_SaveAndFind_ShouldRoundTrip(t *testing.T) {
	repo := sqlitestore.NewPaymentRepository(setupTestDB(t))
	ctx := context.Background()

	p := testPayment("p1")
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "ext-p1", found.PaymentID)
	require.Equal(t, int64(1500), found.Amount)
	require.Equal(t, payment.StatusNew, found.Status)
	require.Equal(t, int64(1), found.Version)
	require.Nil(t, found.ConfirmedAt)

	byExternal, err := repo.FindByPaymentID(ctx, "ext-p1")
	require.NoError(t, err)
	require.Equal(t, "p1", byExternal.ID)
}

func TestPaymentRepository_FindByID_WhenMissing_ShouldReturnNotFound(t *testing.T) {
	repo := sqlitestore.NewPaymentRepository(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), "ghost")

	require.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

func TestPaymentRepository_Update_ShouldBumpVersion(t *testing.T) {
	repo := sqlitestore.NewPaymentRepository(setupTestDB(t))
	ctx := context.Background()

	p := testPayment("p1")
	require.NoError(t, repo.Save(ctx, p))

	now := p.CreatedAt.Add(time.Minute)
	p.Status = payment.StatusProcessing
	p.UpdatedAt = now
	require.NoError(t, repo.Update(ctx, p))
	require.Equal(t, int64(2), p.Version)

	found, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, payment.StatusProcessing, found.Status)
	require.Equal(t, int64(2), found.Version)
}

func TestPaymentRepository_Update_WhenVersionStale_ShouldConflict(t *testing.T) {
	repo := sqlitestore.NewPaymentRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testPayment("p1")))

	first, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)

	first.Status = payment.StatusProcessing
	require.NoError(t, repo.Update(ctx, first))

	second.Status = payment.StatusCancelled
	err = repo.Update(ctx, second)
	require.ErrorIs(t, err, payment.ErrVersionConflict)
}

func TestPaymentRepository_FindActive_ShouldExcludeTerminalStatuses(t *testing.T) {
	repo := sqlitestore.NewPaymentRepository(setupTestDB(t))
	ctx := context.Background()

	active := testPayment("p1")
	require.NoError(t, repo.Save(ctx, active))

	confirmed := testPayment("p2")
	confirmed.Status = payment.StatusConfirmed
	require.NoError(t, repo.Save(ctx, confirmed))

	found, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "p1", found[0].ID)
}

func TestPaymentRepository_Counters_ShouldAggregateByTeam(t *testing.T) {
	repo := sqlitestore.NewPaymentRepository(setupTestDB(t))
	ctx := context.Background()

	p1 := testPayment("p1")
	require.NoError(t, repo.Save(ctx, p1))

	p2 := testPayment("p2")
	p2.Status = payment.StatusProcessing
	require.NoError(t, repo.Save(ctx, p2))

	p3 := testPayment("p3")
	p3.Status = payment.StatusExpired
	require.NoError(t, repo.Save(ctx, p3))

	activeCount, err := repo.CountActiveByTeam(ctx, "team-1")
	require.NoError(t, err)
	require.Equal(t, 2, activeCount)

	processing, err := repo.CountByTeamAndStatus(ctx, "team-1", payment.StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, 1, processing)

	totals, err := repo.DailyTotalsByTeam(ctx, "team-1", p1.CreatedAt.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, totals.Count)
	require.Equal(t, int64(4500), totals.Amount)
}

func TestTeamRepository_SaveAndFind_ShouldRoundTrip(t *testing.T) {
	repo := sqlitestore.NewTeamRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &team.Team{
		ID:                    "team-1",
		Name:                  "Team One",
		Active:                true,
		Currencies:            []string{"BRL", "USD"},
		MaxPaymentAmount:      100000,
		DailyTransactionLimit: 50,
	}))

	found, err := repo.FindByID(ctx, "team-1")
	require.NoError(t, err)
	require.True(t, found.Active)
	require.Equal(t, []string{"BRL", "USD"}, found.Currencies)
	require.Equal(t, int64(100000), found.MaxPaymentAmount)

	_, err = repo.FindByID(ctx, "ghost")
	require.ErrorIs(t, err, team.ErrTeamNotFound)
}

func TestAuditRepository_Record_ShouldPersistTrailInOrder(t *testing.T) {
	repo := sqlitestore.NewAuditRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, contracts.AuditEntry{
		ID:             "a1",
		PaymentID:      "p1",
		Action:         "CONFIRM",
		Outcome:        contracts.AuditOutcomeFailure,
		PreviousStatus: payment.StatusNew,
		CurrentStatus:  payment.StatusNew,
		Reason:         "payment must be AUTHORIZED to confirm",
		Duration:       12 * time.Millisecond,
		CreatedAt:      base,
	}))
	require.NoError(t, repo.Record(ctx, contracts.AuditEntry{
		ID:             "a2",
		PaymentID:      "p1",
		Action:         "CONFIRM",
		Outcome:        contracts.AuditOutcomeSuccess,
		PreviousStatus: payment.StatusAuthorized,
		CurrentStatus:  payment.StatusConfirmed,
		Amount:         1500,
		Duration:       30 * time.Millisecond,
		CreatedAt:      base.Add(time.Minute),
	}))

	entries, err := repo.FindByPaymentID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, contracts.AuditOutcomeFailure, entries[0].Outcome)
	require.Equal(t, contracts.AuditOutcomeSuccess, entries[1].Outcome)
	require.Equal(t, 30*time.Millisecond, entries[1].Duration)
}
