package http_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

// Minimal in-memory stores so the router tests exercise real handlers,
// middleware and use cases without a database.

type fakeStores struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	orders   map[string]*domain.Order
	users    map[string]*domain.User
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		products: map[string]*domain.Product{},
		orders:   map[string]*domain.Order{},
		users:    map[string]*domain.User{},
	}
}

type fakeProducts struct{ s *fakeStores }
type fakeOrders struct{ s *fakeStores }
type fakeUsers struct{ s *fakeStores }

func (f fakeProducts) Insert(_ context.Context, p *domain.Product) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, ex := range f.s.products {
		if ex.SKU == p.SKU {
			return fmt.Errorf("%w: duplicate field value", domain.ErrConflict)
		}
	}
	cp := *p
	f.s.products[p.ID] = &cp
	return nil
}

func (f fakeProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f fakeProducts) Update(_ context.Context, p *domain.Product) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *p
	f.s.products[p.ID] = &cp
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.products, id)
	return nil
}

func (f fakeProducts) List(_ context.Context, filter usecase.ProductFilter) ([]domain.Product, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Product{}
	for _, p := range f.s.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f fakeProducts) Search(_ context.Context, _ string, _ int) ([]domain.Product, error) {
	return nil, nil
}

func (f fakeProducts) Featured(_ context.Context, _ int) ([]domain.Product, error) {
	return nil, nil
}

func (f fakeProducts) DecrementStockIf(_ context.Context, id string, qty int) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (f fakeProducts) IncrementStock(_ context.Context, id string, qty int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

func (f fakeOrders) Insert(_ context.Context, o *domain.Order) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *o
	f.s.orders[o.ID] = &cp
	return nil
}

func (f fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if o, ok := f.s.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (f fakeOrders) ListByUser(_ context.Context, userID string, page, limit int) ([]domain.Order, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	mine := []domain.Order{}
	for _, o := range f.s.orders {
		if o.UserID == userID {
			mine = append(mine, *o)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	total := len(mine)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return mine[start:end], total, nil
}

func (f fakeOrders) MarkPaid(_ context.Context, id string, at time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	o, ok := f.s.orders[id]
	if !ok || (o.Status != domain.StatusPending && o.Status != domain.StatusProcessing) {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.Status = domain.StatusProcessing
	return true, nil
}

func (f fakeOrders) CancelIf(_ context.Context, id string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	o, ok := f.s.orders[id]
	if !ok || o.Status == domain.StatusCancelled || o.IsDelivered {
		return false, nil
	}
	o.Status = domain.StatusCancelled
	return true, nil
}

func (f fakeUsers) Insert(_ context.Context, u *domain.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, ex := range f.s.users {
		if ex.Email == u.Email || ex.Username == u.Username {
			return fmt.Errorf("%w: duplicate field value", domain.ErrConflict)
		}
	}
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if u, ok := f.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email || (username != "" && u.Username == username) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	delete(f.s.users, id)
	return nil
}

func (f fakeUsers) List(_ context.Context, page, limit int) ([]domain.User, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	all := []domain.User{}
	for _, u := range f.s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, len(all), nil
}

func (f fakeUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if u, ok := f.s.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

// countingLimiter allows the first n requests, then rejects everything.
type countingLimiter struct {
	mu    sync.Mutex
	n     int
	limit int
}

func (l *countingLimiter) Allow(_ context.Context, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	return l.n <= l.limit, nil
}

var (
	_ usecase.ProductStore = fakeProducts{}
	_ usecase.OrderStore   = fakeOrders{}
	_ usecase.UserStore    = fakeUsers{}
)
