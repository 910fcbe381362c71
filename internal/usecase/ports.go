package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/dtnguyen/shop-api/internal/entity"
)

// Persistence ports (kept out of domain).

type ProductFilter struct {
	Category domain.Category
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Featured bool
	Sort     string // "newest" (default), "price-asc", "price-desc", "rating"
	Page     int
	Limit    int
}

type ProductStore interface {
	Insert(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)

	// DecrementStockIf atomically runs stock -= qty only when stock >= qty,
	// reporting whether the decrement happened.
	DecrementStockIf(ctx context.Context, id string, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}

type OrderStore interface {
	Insert(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.Order, int, error)

	// MarkPaid flips the order to paid/processing only from pending or
	// processing, reporting whether a row matched.
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)

	// CancelIf moves the order to cancelled unless it is delivered or
	// already cancelled, reporting whether a row matched.
	CancelIf(ctx context.Context, id string) (bool, error)
}

type UserStore interface {
	Insert(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, limit int) ([]domain.User, int, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Unlock releases a held lock so a retry after a failed attempt is
	// not rejected as a duplicate.
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// Page is the descriptor every list operation returns.
type Page[T any] struct {
	Items []T
	Count int
	Total int
	Page  int
	Pages int
}

func newPage[T any](items []T, total, page, limit int) Page[T] {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Page[T]{Items: items, Count: len(items), Total: total, Page: page, Pages: pages}
}

// clampPaging normalizes user-supplied paging inputs.
func clampPaging(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
