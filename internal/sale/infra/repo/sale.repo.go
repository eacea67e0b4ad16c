package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/shopspring/decimal"
)

type saleRow struct {
	ID        int64           `db:"id"`
	ProductID int             `db:"product_id"`
	UserID    int             `db:"user_id"`
	Quantity  int             `db:"quantity"`
	Value     decimal.Decimal `db:"value"`
	StatusID  int             `db:"status_id"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r *saleRow) toDomain() (*domain.Sale, error) {
	status, err := pkgtypes.SaleStatusFromID(r.StatusID)
	if err != nil {
		return nil, err
	}
	return &domain.Sale{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Quantity:  r.Quantity,
		Value:     r.Value,
		Status:    status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

const saleColumns = `id, product_id, user_id, quantity, value, status_id, created_at, updated_at`

type SaleRepo struct {
	repo      *sqlx.DB
	tableName string
}

func NewSaleRepo(db *sqlx.DB) *SaleRepo {
	return &SaleRepo{
		repo:      db,
		tableName: pkgconstants.DBTableName_Sales,
	}
}

func (r *SaleRepo) GetRepo() *sqlx.DB {
	return r.repo
}

func (r *SaleRepo) Insert(ctx context.Context, sale *domain.Sale) error {
	query := fmt.Sprintf(`INSERT INTO %s (product_id, user_id, quantity, value, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`, r.tableName)
	var id int64
	err := r.repo.QueryRowxContext(ctx, query,
		sale.ProductID, sale.UserID, sale.Quantity, sale.Value, sale.Status.ID(), sale.CreatedAt, sale.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return err
	}
	sale.ID = id
	return nil
}

func (r *SaleRepo) Get(ctx context.Context, id int64) (*domain.Sale, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, saleColumns, r.tableName)
	row := &saleRow{}
	err := r.repo.GetContext(ctx, row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	sale, err := row.toDomain()
	if err != nil {
		return nil, false, err
	}
	return sale, true, nil
}

func (r *SaleRepo) UpdateStatus(ctx context.Context, id int64, transition func(s *domain.Sale) error) (*domain.Sale, bool, error) {
	type result struct {
		sale  *domain.Sale
		found bool
	}
	res, err := postgres.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (result, error) {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, saleColumns, r.tableName)
		row := &saleRow{}
		err := tx.GetContext(ctx, row, query, id)
		if errors.Is(err, sql.ErrNoRows) {
			return result{}, nil
		}
		if err != nil {
			return result{}, err
		}

		sale, err := row.toDomain()
		if err != nil {
			return result{}, err
		}
		if err := transition(sale); err != nil {
			return result{sale: sale, found: true}, err
		}

		update := fmt.Sprintf(`UPDATE %s SET status_id = $1, updated_at = $2 WHERE id = $3`, r.tableName)
		if _, err := tx.ExecContext(ctx, update, sale.Status.ID(), sale.UpdatedAt, sale.ID); err != nil {
			return result{}, err
		}
		return result{sale: sale, found: true}, nil
	})
	return res.sale, res.found, err
}
