package repo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/saga-choreography/internal/inventory/application"
	"github.com/k-code-yt/saga-choreography/internal/inventory/domain"
	"github.com/k-code-yt/saga-choreography/internal/inventory/infra/repo"
	"github.com/k-code-yt/saga-choreography/migrations"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type capture struct {
	mu   sync.Mutex
	sent []pkgtypes.EventType
}

func (c *capture) Publish(_ context.Context, env *pkgtypes.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, env.SaleEvent)
	return nil
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "user",
				"POSTGRES_PASSWORD": "pass",
				"POSTGRES_DB":       pkgconstants.DBNameInventory,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://user:pass@%s:%s/%s?sslmode=disable", host, port.Port(), pkgconstants.DBNameInventory)
}

func sale(id int64, productID, qty int) pkgtypes.Sale {
	return pkgtypes.Sale{
		ID:        id,
		ProductID: productID,
		UserID:    1,
		Quantity:  qty,
		Value:     decimal.NewFromInt(20),
		Status:    pkgtypes.SaleStatus_Pending,
	}
}

func TestInventoryRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbURL := startPostgres(t, ctx)
	require.NoError(t, migrations.Up(string(pkgconstants.Participant_Inventory), dbURL))

	db, err := sqlx.Connect("postgres", dbURL)
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewInventoryRepo(db)
	require.NoError(t, r.UpsertStock(ctx, 42, 5))

	pub := &capture{}
	svc := application.NewInventoryService(r, pub)

	stockOf := func() int {
		st, found, err := r.GetStock(ctx, 42)
		require.NoError(t, err)
		require.True(t, found)
		return st.Quantity
	}

	res, err := svc.Debit(ctx, sale(1, 42, 3))
	require.NoError(t, err)
	assert.Equal(t, pkgconstants.EventType_UpdatedInventory, res.Outcome)
	assert.Equal(t, 2, stockOf())

	res, err = svc.Debit(ctx, sale(1, 42, 3))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 2, stockOf())

	res, err = svc.Debit(ctx, sale(2, 42, 10))
	require.NoError(t, err)
	assert.Equal(t, pkgconstants.EventType_RollbackInventory, res.Outcome)
	assert.Equal(t, 2, stockOf())

	res, err = svc.Credit(ctx, sale(1, 42, 3), pkgconstants.EventType_FailedPayment)
	require.NoError(t, err)
	assert.Equal(t, pkgconstants.EventType_RollbackInventory, res.Outcome)
	assert.Equal(t, 5, stockOf())

	reservation, found, err := r.GetReservation(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.ReservationStatus_Released, reservation.Status)

	res, err = svc.Credit(ctx, sale(1, 42, 3), pkgconstants.EventType_RollbackInventory)
	require.NoError(t, err)
	assert.Empty(t, res.Outcome)
	assert.Equal(t, 5, stockOf())

	assert.Equal(t, []pkgtypes.EventType{
		pkgconstants.EventType_UpdatedInventory,
		pkgconstants.EventType_UpdatedInventory,
		pkgconstants.EventType_RollbackInventory,
		pkgconstants.EventType_RollbackInventory,
	}, pub.sent)
}
