package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/payment/application"
	"github.com/k-code-yt/saga-choreography/internal/payment/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu       sync.Mutex
	accounts map[int]domain.Account
	payments []domain.Payment
	marks    *inbox.MemoryMarks
}

func NewStore() *Store {
	return &Store{
		accounts: map[int]domain.Account{},
		marks:    inbox.NewMemoryMarks(),
	}
}

func (s *Store) SetAccount(userID int, name string, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	acc, ok := s.accounts[userID]
	if !ok {
		acc = domain.Account{ID: userID, CreatedAt: now}
	}
	acc.Name = name
	acc.Balance = balance
	acc.UpdatedAt = now
	s.accounts[userID] = acc
}

func (s *Store) Account(userID int) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	return acc, ok
}

func (s *Store) Payments() []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.payments)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx application.PaymentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		MemoryMarks: s.marks.Clone(),
		accounts:    maps.Clone(s.accounts),
		payments:    slices.Clone(s.payments),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.accounts = tx.accounts
	s.payments = tx.payments
	s.marks = tx.MemoryMarks
	return nil
}

type memTx struct {
	*inbox.MemoryMarks
	accounts map[int]domain.Account
	payments []domain.Payment
}

func (t *memTx) GetAccountForUpdate(_ context.Context, userID int) (*domain.Account, bool, error) {
	acc, ok := t.accounts[userID]
	if !ok {
		return nil, false, nil
	}
	return &acc, true, nil
}

func (t *memTx) UpdateAccount(_ context.Context, acc *domain.Account) error {
	t.accounts[acc.ID] = *acc
	return nil
}

func (t *memTx) InsertPayment(_ context.Context, p *domain.Payment) error {
	t.payments = append(t.payments, *p)
	return nil
}
