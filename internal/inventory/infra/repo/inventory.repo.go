package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/inventory/application"
	"github.com/k-code-yt/saga-choreography/internal/inventory/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
)

type InventoryRepo struct {
	repo              *sqlx.DB
	inboxRepo         *inbox.InboxEventRepo
	tableName         string
	reservationsTable string
}

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo {
	return &InventoryRepo{
		repo:              db,
		inboxRepo:         inbox.NewInboxEventRepo(),
		tableName:         pkgconstants.DBTableName_Inventory,
		reservationsTable: pkgconstants.DBTableName_Reservations,
	}
}

func (r *InventoryRepo) GetRepo() *sqlx.DB {
	return r.repo
}

func (r *InventoryRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx application.InventoryTx) error) error {
	_, err := postgres.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, &inventoryTx{
			TxMarks: inbox.TxMarks{Repo: r.inboxRepo, Tx: tx},
			repo:    r,
			tx:      tx,
		})
	})
	return err
}

// GetStock reads without locking.
func (r *InventoryRepo) GetStock(ctx context.Context, productID int) (*domain.Stock, bool, error) {
	query := fmt.Sprintf(`SELECT id, product_id, quantity, created_at, updated_at FROM %s WHERE product_id = $1`, r.tableName)
	s := &domain.Stock{}
	err := r.repo.GetContext(ctx, s, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (r *InventoryRepo) UpsertStock(ctx context.Context, productID, qty int) error {
	query := fmt.Sprintf(`INSERT INTO %s (product_id, quantity, created_at, updated_at) VALUES ($1, $2, $3, $3)
		ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`, r.tableName)
	_, err := r.repo.ExecContext(ctx, query, productID, qty, time.Now().UTC())
	return err
}

func (r *InventoryRepo) GetReservation(ctx context.Context, saleID int64) (*domain.Reservation, bool, error) {
	query := fmt.Sprintf(`SELECT sale_id, product_id, quantity, status, created_at, updated_at FROM %s WHERE sale_id = $1`, r.reservationsTable)
	res := &domain.Reservation{}
	err := r.repo.GetContext(ctx, res, query, saleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

type inventoryTx struct {
	inbox.TxMarks
	repo *InventoryRepo
	tx   *sqlx.Tx
}

func (t *inventoryTx) GetStockForUpdate(ctx context.Context, productID int) (*domain.Stock, bool, error) {
	query := fmt.Sprintf(`SELECT id, product_id, quantity, created_at, updated_at FROM %s WHERE product_id = $1 FOR UPDATE`, t.repo.tableName)
	s := &domain.Stock{}
	err := t.tx.GetContext(ctx, s, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (t *inventoryTx) UpdateStock(ctx context.Context, stock *domain.Stock) error {
	query := fmt.Sprintf(`UPDATE %s SET quantity = $1, updated_at = $2 WHERE id = $3`, t.repo.tableName)
	_, err := t.tx.ExecContext(ctx, query, stock.Quantity, stock.UpdatedAt, stock.ID)
	return err
}

func (t *inventoryTx) GetReservationForUpdate(ctx context.Context, saleID int64) (*domain.Reservation, bool, error) {
	query := fmt.Sprintf(`SELECT sale_id, product_id, quantity, status, created_at, updated_at FROM %s WHERE sale_id = $1 FOR UPDATE`, t.repo.reservationsTable)
	res := &domain.Reservation{}
	err := t.tx.GetContext(ctx, res, query, saleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (t *inventoryTx) SaveReservation(ctx context.Context, res *domain.Reservation) error {
	query := fmt.Sprintf(`INSERT INTO %s (sale_id, product_id, quantity, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sale_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`, t.repo.reservationsTable)
	_, err := t.tx.ExecContext(ctx, query, res.SaleID, res.ProductID, res.Quantity, res.Status, res.CreatedAt, res.UpdatedAt)
	return err
}
