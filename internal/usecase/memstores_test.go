package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

// In-memory stores backing the workflow tests.

type memProducts struct {
	mu    sync.Mutex
	items map[string]*domain.Product
}

func newMemProducts(ps ...*domain.Product) *memProducts {
	m := &memProducts{items: map[string]*domain.Product{}}
	for _, p := range ps {
		cp := *p
		m.items[p.ID] = &cp
	}
	return m
}

func (m *memProducts) Insert(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.items {
		if ex.SKU == p.SKU {
			return fmt.Errorf("%w: duplicate field value", domain.ErrConflict)
		}
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, p.ID)
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) List(_ context.Context, f usecase.ProductFilter) ([]domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []domain.Product{}
	for _, p := range m.items {
		if !p.IsActive {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Featured && !p.IsFeatured {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memProducts) Search(_ context.Context, query string, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, p := range m.items {
		if p.IsActive && strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memProducts) Featured(_ context.Context, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, p := range m.items {
		if p.IsActive && p.IsFeatured {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memProducts) DecrementStockIf(_ context.Context, id string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (m *memProducts) IncrementStock(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[id]; ok {
		p.Stock += qty
	}
	return nil
}

func (m *memProducts) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Stock
}

type memOrders struct {
	mu        sync.Mutex
	items     map[string]*domain.Order
	insertErr error
}

func newMemOrders() *memOrders { return &memOrders{items: map[string]*domain.Order{}} }

func (m *memOrders) Insert(_ context.Context, o *domain.Order) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.items[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string, page, limit int) ([]domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mine := []domain.Order{}
	for _, o := range m.items {
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

func (m *memOrders) MarkPaid(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || (o.Status != domain.StatusPending && o.Status != domain.StatusProcessing) {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.Status = domain.StatusProcessing
	return true, nil
}

func (m *memOrders) CancelIf(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || o.Status == domain.StatusCancelled || o.IsDelivered {
		return false, nil
	}
	o.Status = domain.StatusCancelled
	return true, nil
}

type memIdem struct {
	mu     sync.Mutex
	locks  map[string]struct{}
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]struct{}{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if _, held := m.locks[k]; held {
		return false, nil
	}
	m.locks[k] = struct{}{}
	return true, nil
}

func (m *memIdem) Unlock(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

type memUsers struct {
	mu    sync.Mutex
	items map[string]*domain.User
}

func newMemUsers(us ...*domain.User) *memUsers {
	m := &memUsers{items: map[string]*domain.User{}}
	for _, u := range us {
		cp := *u
		m.items[u.ID] = &cp
	}
	return m
}

func (m *memUsers) Insert(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.items {
		if ex.Email == u.Email || ex.Username == u.Username {
			return fmt.Errorf("%w: duplicate field value", domain.ErrConflict)
		}
	}
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email || (username != "" && u.Username == username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[u.ID]; !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, u.ID)
	}
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	delete(m.items, id)
	return nil
}

func (m *memUsers) List(_ context.Context, page, limit int) ([]domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []domain.User{}
	for _, u := range m.items {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.items[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

// Shared fixtures.

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testProduct(id, name string, priceStr string, stock int) *domain.Product {
	return &domain.Product{
		ID:        id,
		Name:      name,
		Price:     price(priceStr),
		Category:  domain.CategoryElectronics,
		Stock:     stock,
		SKU:       strings.ToUpper(name) + "-SKU",
		IsActive:  true,
		CreatedBy: "seller-1",
		CreatedAt: time.Now(),
	}
}

func testUser(id string, role domain.Role) *domain.User {
	return &domain.User{
		ID:        id,
		Username:  "user-" + id,
		Email:     id + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

var (
	_ usecase.ProductStore     = (*memProducts)(nil)
	_ usecase.OrderStore       = (*memOrders)(nil)
	_ usecase.UserStore        = (*memUsers)(nil)
	_ usecase.IdempotencyStore = (*memIdem)(nil)
)
