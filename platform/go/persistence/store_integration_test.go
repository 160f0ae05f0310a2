package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newBootstrappedPool starts a transient Postgres container and applies the
// full registry schema.
func newBootstrappedPool(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping store integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("swasraya"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(pool) })

	require.NoError(t, Bootstrap(ctx, pool))
	return ctx, pool
}

func mustCreateCategory(t *testing.T, ctx context.Context, store *TaxonomyStore, name string, active bool) Category {
	t.Helper()

	category, err := store.CreateCategory(ctx, CreateCategoryParams{
		ID:            uuid.New(),
		NameEnglish:   name,
		NameMalayalam: name,
		IsActive:      active,
	})
	require.NoError(t, err)
	return category
}

func mustCreateRegistration(t *testing.T, ctx context.Context, store *RegistrationStore, customerID, mobile string, categoryID uuid.UUID) Registration {
	t.Helper()

	fee := decimal.RequireFromString("500")
	registration, err := store.Create(ctx, CreateRegistrationParams{
		ID:           uuid.New(),
		CustomerID:   customerID,
		FullName:     "Devika Menon",
		MobileNumber: mobile,
		CategoryID:   categoryID,
		Ward:         "12",
		Fee:          &fee,
	})
	require.NoError(t, err)
	return registration
}

func TestRegistrationLookupAndUniqueness(t *testing.T) {
	t.Parallel()

	ctx, pool := newBootstrappedPool(t)

	taxonomy, err := NewTaxonomyStore(ctx, pool)
	require.NoError(t, err)
	registrations, err := NewRegistrationStore(ctx, pool)
	require.NoError(t, err)

	category := mustCreateCategory(t, ctx, taxonomy, "Auto Rickshaw", true)
	record := mustCreateRegistration(t, ctx, registrations, "C100", "9998887777", category.ID)

	for _, query := range []string{"C100", "9998887777"} {
		view, findErr := registrations.FindByIdentifier(ctx, query)
		require.NoError(t, findErr)
		require.Equal(t, record.ID, view.ID)
		require.Equal(t, "pending", view.Status)
		require.NotNil(t, view.Fee)
		require.True(t, view.Fee.Equal(decimal.RequireFromString("500")))
		require.NotNil(t, view.Category)
		require.Equal(t, "Auto Rickshaw", view.Category.NameEnglish)
	}

	_, err = registrations.FindByIdentifier(ctx, "C404")
	require.ErrorIs(t, err, ErrNotFound)

	// The unique indexes reject identifier collisions outright.
	_, err = registrations.Create(ctx, CreateRegistrationParams{
		ID:           uuid.New(),
		CustomerID:   "C100",
		FullName:     "Someone Else",
		MobileNumber: "1112223333",
		CategoryID:   category.ID,
	})
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = registrations.Create(ctx, CreateRegistrationParams{
		ID:           uuid.New(),
		CustomerID:   "C200",
		FullName:     "Someone Else",
		MobileNumber: "9998887777",
		CategoryID:   category.ID,
	})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestRegistrationStatusTransitions(t *testing.T) {
	t.Parallel()

	ctx, pool := newBootstrappedPool(t)

	taxonomy, err := NewTaxonomyStore(ctx, pool)
	require.NoError(t, err)
	registrations, err := NewRegistrationStore(ctx, pool)
	require.NoError(t, err)

	category := mustCreateCategory(t, ctx, taxonomy, "Taxi", true)
	record := mustCreateRegistration(t, ctx, registrations, "C300", "7776665555", category.ID)

	approved, err := registrations.SetStatus(ctx, record.ID, "approved")
	require.NoError(t, err)
	require.Equal(t, "approved", approved.Status)

	// Terminal states admit no further transitions.
	_, err = registrations.SetStatus(ctx, record.ID, "rejected")
	require.ErrorIs(t, err, ErrStatusTransition)

	_, err = registrations.SetStatus(ctx, uuid.New(), "approved")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransferApprovalRepointsRegistrationAtomically(t *testing.T) {
	t.Parallel()

	ctx, pool := newBootstrappedPool(t)

	taxonomy, err := NewTaxonomyStore(ctx, pool)
	require.NoError(t, err)
	registrations, err := NewRegistrationStore(ctx, pool)
	require.NoError(t, err)
	transfers, err := NewTransferStore(ctx, pool)
	require.NoError(t, err)

	current := mustCreateCategory(t, ctx, taxonomy, "Auto Rickshaw", true)
	target := mustCreateCategory(t, ctx, taxonomy, "Taxi", true)
	targetSub, err := taxonomy.CreateSubcategory(ctx, CreateSubcategoryParams{
		ID:            uuid.New(),
		CategoryID:    target.ID,
		NameEnglish:   "Sedan",
		NameMalayalam: "Sedan",
		IsActive:      true,
	})
	require.NoError(t, err)

	record := mustCreateRegistration(t, ctx, registrations, "C400", "6665554444", current.ID)

	request, err := transfers.Create(ctx, CreateTransferRequestParams{
		ID:                     uuid.New(),
		RegistrationID:         record.ID,
		RequestedCategoryID:    target.ID,
		RequestedSubcategoryID: &targetSub.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "pending", request.Status)

	// A second open request for the same registration violates the partial
	// unique index.
	_, err = transfers.Create(ctx, CreateTransferRequestParams{
		ID:                  uuid.New(),
		RegistrationID:      record.ID,
		RequestedCategoryID: current.ID,
	})
	require.ErrorIs(t, err, ErrDuplicate)

	resolved, err := transfers.Approve(ctx, request.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, "approved", resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	updated, err := registrations.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, target.ID, updated.CategoryID)
	require.NotNil(t, updated.SubcategoryID)
	require.Equal(t, targetSub.ID, *updated.SubcategoryID)

	// Resolved requests are terminal.
	_, err = transfers.Approve(ctx, request.ID, time.Now().UTC())
	require.ErrorIs(t, err, ErrRequestResolved)
}

func TestTransferRejectLeavesRegistrationUntouched(t *testing.T) {
	t.Parallel()

	ctx, pool := newBootstrappedPool(t)

	taxonomy, err := NewTaxonomyStore(ctx, pool)
	require.NoError(t, err)
	registrations, err := NewRegistrationStore(ctx, pool)
	require.NoError(t, err)
	transfers, err := NewTransferStore(ctx, pool)
	require.NoError(t, err)

	current := mustCreateCategory(t, ctx, taxonomy, "Goods Carrier", true)
	target := mustCreateCategory(t, ctx, taxonomy, "Taxi", true)
	record := mustCreateRegistration(t, ctx, registrations, "C500", "5554443333", current.ID)

	request, err := transfers.Create(ctx, CreateTransferRequestParams{
		ID:                  uuid.New(),
		RegistrationID:      record.ID,
		RequestedCategoryID: target.ID,
	})
	require.NoError(t, err)

	rejected, err := transfers.Reject(ctx, request.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, "rejected", rejected.Status)

	unchanged, err := registrations.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, current.ID, unchanged.CategoryID)
	require.Nil(t, unchanged.SubcategoryID)

	// With the first request resolved, a new one is accepted.
	_, err = transfers.Create(ctx, CreateTransferRequestParams{
		ID:                  uuid.New(),
		RegistrationID:      record.ID,
		RequestedCategoryID: target.ID,
	})
	require.NoError(t, err)

	queue, err := transfers.ListPending(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, queue.TotalItems)
	require.Equal(t, "C500", queue.Items[0].CustomerID)
	require.Equal(t, "Goods Carrier", queue.Items[0].CurrentCategoryName)
	require.Equal(t, "Taxi", queue.Items[0].RequestedCategoryName)
}
