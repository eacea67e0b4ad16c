package memory

import (
	"context"
	"sync"

	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
)

type Store struct {
	mu     sync.Mutex
	sales  map[int64]domain.Sale
	nextID int64
}

func NewStore() *Store {
	return &Store{
		sales:  map[int64]domain.Sale{},
		nextID: 1,
	}
}

func (s *Store) Insert(_ context.Context, sale *domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale.ID = s.nextID
	s.nextID++
	s.sales[sale.ID] = *sale
	return nil
}

func (s *Store) Get(_ context.Context, id int64) (*domain.Sale, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, false, nil
	}
	return &sale, true, nil
}

func (s *Store) UpdateStatus(_ context.Context, id int64, transition func(s *domain.Sale) error) (*domain.Sale, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, false, nil
	}
	if err := transition(&sale); err != nil {
		return &sale, true, err
	}
	s.sales[id] = sale
	return &sale, true, nil
}
