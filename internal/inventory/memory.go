package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded Store used by tests and local development.
// It mirrors PostgresStore semantics, including atomic depleting movements.
type MemoryStore struct {
	mu         sync.Mutex
	products   map[int64]*Product
	movements  []Movement
	nextProd   int64
	nextMove   int64
	nowFn      func() time.Time
	createDesc []int64 // product ids in creation order, newest appended last
}

// NewMemoryStore builds an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]*Product),
		nextProd: 1,
		nextMove: 1,
		nowFn:    time.Now,
	}
}

// SetClock overrides the timestamp source, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

func (s *MemoryStore) CreateProduct(_ context.Context, name string, qty int, expDate *string, minQty int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Product{ID: s.nextProd, Name: name, Qty: qty, MinQty: minQty}
	if expDate != nil {
		v := *expDate
		p.ExpDate = &v
	}
	s.nextProd++
	s.products[p.ID] = &p
	s.createDesc = append(s.createDesc, p.ID)
	return p, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return *p, nil
}

func (s *MemoryStore) SearchProducts(_ context.Context, query string) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Product
	for i := len(s.createDesc) - 1; i >= 0; i-- {
		p, ok := s.products[s.createDesc[i]]
		if !ok {
			continue
		}
		if strings.Contains(p.Name, query) {
			list = append(list, *p)
		}
	}
	return list, nil
}

func (s *MemoryStore) ListProducts(_ context.Context, limit int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Product
	for i := len(s.createDesc) - 1; i >= 0 && len(list) < limit; i-- {
		if p, ok := s.products[s.createDesc[i]]; ok {
			list = append(list, *p)
		}
	}
	return list, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id int64, upd ProductUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	switch {
	case upd.ClearExpiry:
		p.ExpDate = nil
	case upd.Expiry != nil:
		v := *upd.Expiry
		p.ExpDate = &v
	}
	if upd.Threshold != nil {
		p.MinQty = *upd.Threshold
	}
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) ApplyMovement(_ context.Context, productID int64, mtype MovementType, qty int, comment string) (Movement, error) {
	if qty <= 0 {
		return Movement{}, fmt.Errorf("apply movement: quantity must be positive, got %d", qty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return Movement{}, ErrProductNotFound
	}
	if mtype == MovementIn {
		p.Qty += qty
	} else {
		if p.Qty < qty {
			return Movement{}, ErrInsufficientStock
		}
		p.Qty -= qty
	}

	m := Movement{
		ID:        s.nextMove,
		ProductID: productID,
		Type:      mtype,
		Qty:       qty,
		CreatedAt: s.nowFn().Format(TimestampLayout),
		Comment:   comment,
	}
	s.nextMove++
	s.movements = append(s.movements, m)
	return m, nil
}

func (s *MemoryStore) ListJournal(_ context.Context, limit int) ([]JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []JournalEntry
	for i := len(s.movements) - 1; i >= 0 && len(list) < limit; i-- {
		m := s.movements[i]
		name := fmt.Sprintf("%s%d", DeletedNamePrefix, m.ProductID)
		if p, ok := s.products[m.ProductID]; ok {
			name = p.Name
		}
		list = append(list, JournalEntry{
			MovementID:  m.ID,
			ProductName: name,
			Type:        m.Type,
			Qty:         m.Qty,
			CreatedAt:   m.CreatedAt,
			Comment:     m.Comment,
		})
	}
	return list, nil
}

func (s *MemoryStore) ListExpiring(_ context.Context, ref time.Time, withinDays int) ([]ExpiringProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []Product
	for _, p := range s.products {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return expiringWithin(all, ref, withinDays), nil
}

func (s *MemoryStore) ListLowStock(_ context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Product
	for _, p := range s.products {
		if p.MinQty > 0 && p.Qty <= p.MinQty {
			list = append(list, *p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Qty < list[j].Qty })
	return list, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Products: len(s.products), Movements: len(s.movements)}
	for _, p := range s.products {
		st.TotalQty += int64(p.Qty)
	}
	return st, nil
}
