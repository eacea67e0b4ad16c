package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/payment/application"
	"github.com/k-code-yt/saga-choreography/internal/payment/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
	"github.com/shopspring/decimal"
)

type PaymentRepo struct {
	repo          *sqlx.DB
	inboxRepo     *inbox.InboxEventRepo
	usersTable    string
	paymentsTable string
}

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo {
	return &PaymentRepo{
		repo:          db,
		inboxRepo:     inbox.NewInboxEventRepo(),
		usersTable:    pkgconstants.DBTableName_Users,
		paymentsTable: pkgconstants.DBTableName_Payments,
	}
}

func (r *PaymentRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx application.PaymentTx) error) error {
	_, err := postgres.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, &paymentTx{
			TxMarks: inbox.TxMarks{Repo: r.inboxRepo, Tx: tx},
			repo:    r,
			tx:      tx,
		})
	})
	return err
}

func (r *PaymentRepo) GetAccount(ctx context.Context, userID int) (*domain.Account, bool, error) {
	query := fmt.Sprintf(`SELECT id, name, balance, created_at, updated_at FROM %s WHERE id = $1`, r.usersTable)
	acc := &domain.Account{}
	err := r.repo.GetContext(ctx, acc, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

func (r *PaymentRepo) UpsertAccount(ctx context.Context, userID int, name string, balance decimal.Decimal) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, name, balance, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`, r.usersTable)
	_, err := r.repo.ExecContext(ctx, query, userID, name, balance, time.Now().UTC())
	return err
}

func (r *PaymentRepo) ListPaymentsBySale(ctx context.Context, saleID int64) ([]domain.Payment, error) {
	query := fmt.Sprintf(`SELECT id, user_id, sale_id, value, created_at FROM %s WHERE sale_id = $1 ORDER BY created_at`, r.paymentsTable)
	var payments []domain.Payment
	err := r.repo.SelectContext(ctx, &payments, query, saleID)
	return payments, err
}

type paymentTx struct {
	inbox.TxMarks
	repo *PaymentRepo
	tx   *sqlx.Tx
}

func (t *paymentTx) GetAccountForUpdate(ctx context.Context, userID int) (*domain.Account, bool, error) {
	query := fmt.Sprintf(`SELECT id, name, balance, created_at, updated_at FROM %s WHERE id = $1 FOR UPDATE`, t.repo.usersTable)
	acc := &domain.Account{}
	err := t.tx.GetContext(ctx, acc, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

func (t *paymentTx) UpdateAccount(ctx context.Context, acc *domain.Account) error {
	query := fmt.Sprintf(`UPDATE %s SET balance = $1, updated_at = $2 WHERE id = $3`, t.repo.usersTable)
	_, err := t.tx.ExecContext(ctx, query, acc.Balance, acc.UpdatedAt, acc.ID)
	return err
}

func (t *paymentTx) InsertPayment(ctx context.Context, p *domain.Payment) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, sale_id, value, created_at) VALUES ($1, $2, $3, $4, $5)`, t.repo.paymentsTable)
	_, err := t.tx.ExecContext(ctx, query, p.ID, p.UserID, p.SaleID, p.Value, p.CreatedAt)
	return err
}
