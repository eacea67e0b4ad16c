package domain

import (
	"fmt"
	"time"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
)

type Stock struct {
	ID        int       `db:"id"`
	ProductID int       `db:"product_id"`
	Quantity  int       `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var ErrInsufficientStock = pkgerrors.NewBusinessRuleError("insufficient stock")

func (s *Stock) CanDebit(qty int) bool {
	return qty > 0 && s.Quantity >= qty
}

func (s *Stock) Debit(qty int) error {
	if !s.CanDebit(qty) {
		return fmt.Errorf("product %d has %d, wants %d: %w", s.ProductID, s.Quantity, qty, ErrInsufficientStock)
	}
	s.Quantity -= qty
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Stock) Credit(qty int) {
	s.Quantity += qty
	s.UpdatedAt = time.Now().UTC()
}

type ReservationStatus string

const (
	ReservationStatus_Reserved ReservationStatus = "reserved"
	ReservationStatus_Released ReservationStatus = "released"
)

// Reservation remembers a debit so it can be credited back exactly once.
type Reservation struct {
	SaleID    int64             `db:"sale_id"`
	ProductID int               `db:"product_id"`
	Quantity  int               `db:"quantity"`
	Status    ReservationStatus `db:"status"`
	CreatedAt time.Time         `db:"created_at"`
	UpdatedAt time.Time         `db:"updated_at"`
}

func NewReservation(saleID int64, productID, qty int) *Reservation {
	now := time.Now().UTC()
	return &Reservation{
		SaleID:    saleID,
		ProductID: productID,
		Quantity:  qty,
		Status:    ReservationStatus_Reserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Reservation) IsReleased() bool {
	return r.Status == ReservationStatus_Released
}

func (r *Reservation) Release() {
	r.Status = ReservationStatus_Released
	r.UpdatedAt = time.Now().UTC()
}
