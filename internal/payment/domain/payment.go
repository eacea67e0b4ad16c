package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int             `db:"id"`
	Name      string          `db:"name"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

var ErrInsufficientFunds = pkgerrors.NewBusinessRuleError("insufficient funds")

func (a *Account) Withdraw(value decimal.Decimal) error {
	if a.Balance.LessThan(value) {
		return fmt.Errorf("account %d has %s, wants %s: %w", a.ID, a.Balance, value, ErrInsufficientFunds)
	}
	a.Balance = a.Balance.Sub(value)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Payment is an append-only ledger row, one per successful charge.
type Payment struct {
	ID        string          `db:"id"`
	UserID    int             `db:"user_id"`
	SaleID    int64           `db:"sale_id"`
	Value     decimal.Decimal `db:"value"`
	CreatedAt time.Time       `db:"created_at"`
}

func NewPayment(userID int, saleID int64, value decimal.Decimal) *Payment {
	return &Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		SaleID:    saleID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
}
