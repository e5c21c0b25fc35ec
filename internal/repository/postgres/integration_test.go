//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/cutout-server/internal/model"
	repo "github.com/dtroode/cutout-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "cutout_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/cutout_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newAccount(t *testing.T, ctx context.Context, accounts *repo.AccountRepository, balance int64) model.Account {
	t.Helper()
	saved, err := accounts.Create(ctx, model.Account{
		Email:         uuid.NewString() + "@example.com",
		PasswordHash:  []byte("hash"),
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Photo:         model.DefaultPhoto,
		CreditBalance: balance,
	})
	require.NoError(t, err)
	return saved
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	accounts := repo.NewAccountRepository(conn)
	ledger := repo.NewLedgerRepository(conn)
	purchases := repo.NewPurchaseRepository(conn)

	t.Run("account_repository", func(t *testing.T) {
		a := newAccount(t, ctx, accounts, 10)

		byEmail, err := accounts.GetByEmail(ctx, a.Email)
		require.NoError(t, err)
		require.Equal(t, a.ID, byEmail.ID)

		byID, err := accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, int64(10), byID.CreditBalance)

		_, err = accounts.Create(ctx, model.Account{Email: a.Email})
		require.ErrorIs(t, err, model.ErrEmailTaken)

		_, err = accounts.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrAccountNotFound)
	})

	t.Run("upsert_federated", func(t *testing.T) {
		identity := model.FederatedIdentity{
			Provider:      model.ProviderClerk,
			Subject:       "user_" + uuid.NewString(),
			Email:         uuid.NewString() + "@example.com",
			EmailVerified: true,
			FirstName:     "Grace",
		}

		created, err := accounts.UpsertFederated(ctx, identity, 10)
		require.NoError(t, err)
		require.Equal(t, int64(10), created.CreditBalance)
		require.Equal(t, model.DefaultPhoto, created.Photo)

		identity.LastName = "Hopper"
		again, err := accounts.UpsertFederated(ctx, identity, 10)
		require.NoError(t, err)
		require.Equal(t, created.ID, again.ID)
		require.Equal(t, "Hopper", again.LastName)

		require.NoError(t, accounts.SoftDeleteByIdentity(ctx, identity.Provider, identity.Subject))
		_, err = accounts.GetByID(ctx, created.ID)
		require.ErrorIs(t, err, model.ErrAccountNotFound)

		restored, err := accounts.UpsertFederated(ctx, identity, 10)
		require.NoError(t, err)
		require.Equal(t, created.ID, restored.ID)
		require.Nil(t, restored.DeletedAt)

		require.ErrorIs(t, accounts.SoftDeleteByIdentity(ctx, identity.Provider, "missing"), model.ErrAccountNotFound)
	})

	t.Run("upsert_federated_links_verified_email", func(t *testing.T) {
		local := newAccount(t, ctx, accounts, 3)

		_, err := accounts.UpsertFederated(ctx, model.FederatedIdentity{
			Provider: model.ProviderGoogle, Subject: uuid.NewString(), Email: local.Email,
		}, 10)
		require.ErrorIs(t, err, model.ErrIdentityConflict)

		linked, err := accounts.UpsertFederated(ctx, model.FederatedIdentity{
			Provider: model.ProviderGoogle, Subject: "g-" + uuid.NewString(), Email: local.Email, EmailVerified: true,
		}, 10)
		require.NoError(t, err)
		require.Equal(t, local.ID, linked.ID)
		require.Equal(t, int64(3), linked.CreditBalance)

		_, err = accounts.UpsertFederated(ctx, model.FederatedIdentity{
			Provider: model.ProviderClerk, Subject: uuid.NewString(), Email: local.Email, EmailVerified: true,
		}, 10)
		require.ErrorIs(t, err, model.ErrIdentityConflict)
	})

	t.Run("upsert_federated_email_taken_on_update", func(t *testing.T) {
		local := newAccount(t, ctx, accounts, 3)
		identity := model.FederatedIdentity{
			Provider: model.ProviderClerk,
			Subject:  "user_" + uuid.NewString(),
			Email:    uuid.NewString() + "@example.com",
		}
		created, err := accounts.UpsertFederated(ctx, identity, 10)
		require.NoError(t, err)

		identity.Email = local.Email
		_, err = accounts.UpsertFederated(ctx, identity, 10)
		require.ErrorIs(t, err, model.ErrIdentityConflict)

		unchanged, err := accounts.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotEqual(t, local.Email, unchanged.Email)
	})

	t.Run("ledger_reserve_and_settle", func(t *testing.T) {
		a := newAccount(t, ctx, accounts, 2)

		r, err := ledger.Reserve(ctx, a.ID, model.JobCost)
		require.NoError(t, err)
		require.Equal(t, int64(1), r.BalanceAfter)

		balance, err := ledger.Settle(ctx, r, model.OutcomeFailure)
		require.NoError(t, err)
		require.Equal(t, int64(2), balance)

		balance, err = ledger.Settle(ctx, r, model.OutcomeFailure)
		require.NoError(t, err)
		require.Equal(t, int64(2), balance)

		r, err = ledger.Reserve(ctx, a.ID, model.JobCost)
		require.NoError(t, err)
		balance, err = ledger.Settle(ctx, r, model.OutcomeSuccess)
		require.NoError(t, err)
		require.Equal(t, int64(1), balance)

		_, err = ledger.Reserve(ctx, a.ID, 2)
		require.ErrorIs(t, err, model.ErrInsufficientCredit)

		_, err = ledger.Reserve(ctx, uuid.New(), 1)
		require.ErrorIs(t, err, model.ErrAccountNotFound)

		_, err = ledger.Reserve(ctx, a.ID, 0)
		require.ErrorIs(t, err, model.ErrInvalidAmount)

		balance, err = ledger.Credit(ctx, a.ID, 5)
		require.NoError(t, err)
		require.Equal(t, int64(6), balance)
	})

	t.Run("ledger_concurrent_reserve_never_overdraws", func(t *testing.T) {
		a := newAccount(t, ctx, accounts, 1)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.Reserve(ctx, a.ID, model.JobCost)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
					return
				}
				if assert.ErrorIs(t, err, model.ErrInsufficientCredit) {
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 9, rejected)

		balance, err := ledger.GetBalance(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("ledger_release_stale", func(t *testing.T) {
		a := newAccount(t, ctx, accounts, 3)

		r, err := ledger.Reserve(ctx, a.ID, model.JobCost)
		require.NoError(t, err)
		_, err = ledger.Reserve(ctx, a.ID, model.JobCost)
		require.NoError(t, err)

		released, err := ledger.ReleaseStale(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.GreaterOrEqual(t, released, 2)

		balance, err := ledger.GetBalance(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, int64(3), balance)

		balance, err = ledger.Settle(ctx, r, model.OutcomeFailure)
		require.NoError(t, err)
		require.Equal(t, int64(3), balance)

		balance, err = ledger.Settle(ctx, r, model.OutcomeSuccess)
		require.ErrorIs(t, err, model.ErrReservationReleased)
		require.Equal(t, int64(3), balance)
	})

	t.Run("ledger_settle_unknown_reservation", func(t *testing.T) {
		a := newAccount(t, ctx, accounts, 3)

		for _, outcome := range []model.Outcome{model.OutcomeSuccess, model.OutcomeFailure} {
			_, err := ledger.Settle(ctx, model.Reservation{ID: uuid.New(), AccountID: a.ID, Amount: 1}, outcome)
			require.ErrorIs(t, err, model.ErrNotFound)
		}

		balance, err := ledger.GetBalance(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, int64(3), balance)
	})

	t.Run("purchase_repository", func(t *testing.T) {
		a := newAccount(t, ctx, accounts, 0)
		p := model.Purchase{
			AccountID: a.ID,
			Reference: "pay_" + uuid.NewString(),
			PlanID:    "basic",
			Credits:   100,
			Amount:    decimal.RequireFromString("10.00"),
			Currency:  "USD",
		}

		balance, applied, err := purchases.ApplyPurchase(ctx, p)
		require.NoError(t, err)
		require.True(t, applied)
		require.Equal(t, int64(100), balance)

		balance, applied, err = purchases.ApplyPurchase(ctx, p)
		require.NoError(t, err)
		require.False(t, applied)
		require.Equal(t, int64(100), balance)

		p.Reference = "pay_" + uuid.NewString()
		p.AccountID = uuid.New()
		_, _, err = purchases.ApplyPurchase(ctx, p)
		require.ErrorIs(t, err, model.ErrAccountNotFound)
	})
}
