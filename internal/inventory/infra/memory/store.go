package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/inventory/application"
	"github.com/k-code-yt/saga-choreography/internal/inventory/domain"
)

// Store keeps the stock ledger in process. Each InTx works on a copy that replaces
// the live state only when fn returns nil.
type Store struct {
	mu           sync.Mutex
	stock        map[int]domain.Stock
	reservations map[int64]domain.Reservation
	marks        *inbox.MemoryMarks
	nextID       int
}

func NewStore() *Store {
	return &Store{
		stock:        map[int]domain.Stock{},
		reservations: map[int64]domain.Reservation{},
		marks:        inbox.NewMemoryMarks(),
		nextID:       1,
	}
}

func (s *Store) SetStock(productID, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	st, ok := s.stock[productID]
	if !ok {
		st = domain.Stock{ID: s.nextID, ProductID: productID, CreatedAt: now}
		s.nextID++
	}
	st.Quantity = qty
	st.UpdatedAt = now
	s.stock[productID] = st
}

func (s *Store) Stock(productID int) (domain.Stock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stock[productID]
	return st, ok
}

func (s *Store) Reservation(saleID int64) (domain.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[saleID]
	return r, ok
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx application.InventoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		MemoryMarks:  s.marks.Clone(),
		stock:        maps.Clone(s.stock),
		reservations: maps.Clone(s.reservations),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.stock = tx.stock
	s.reservations = tx.reservations
	s.marks = tx.MemoryMarks
	return nil
}

type memTx struct {
	*inbox.MemoryMarks
	stock        map[int]domain.Stock
	reservations map[int64]domain.Reservation
}

func (t *memTx) GetStockForUpdate(_ context.Context, productID int) (*domain.Stock, bool, error) {
	st, ok := t.stock[productID]
	if !ok {
		return nil, false, nil
	}
	return &st, true, nil
}

func (t *memTx) UpdateStock(_ context.Context, stock *domain.Stock) error {
	t.stock[stock.ProductID] = *stock
	return nil
}

func (t *memTx) GetReservationForUpdate(_ context.Context, saleID int64) (*domain.Reservation, bool, error) {
	r, ok := t.reservations[saleID]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (t *memTx) SaveReservation(_ context.Context, r *domain.Reservation) error {
	t.reservations[r.SaleID] = *r
	return nil
}
