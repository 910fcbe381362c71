package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

func placeOrder(t *testing.T, uc *usecase.Orders, userID string, qty int) *domain.Order {
	t.Helper()
	in := validInput(usecase.RequestedItem{ProductID: "p1", Quantity: qty})
	in.UserID = userID
	order, err := uc.Create(context.Background(), in)
	require.NoError(t, err)
	return order
}

func TestGetOrderAuthorization(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "10.00", 10))
	uc := usecase.NewOrders(products, newMemOrders(), nil, true)
	order := placeOrder(t, uc, "buyer-1", 1)

	owner := testUser("buyer-1", domain.RoleUser)
	stranger := testUser("buyer-2", domain.RoleUser)
	admin := testUser("root", domain.RoleAdmin)

	got, err := uc.GetByID(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = uc.GetByID(context.Background(), stranger, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetByID(context.Background(), admin, order.ID)
	assert.NoError(t, err)

	_, err = uc.GetByID(context.Background(), owner, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMinePagination(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "1.00", 1000))
	orders := newMemOrders()
	uc := usecase.NewOrders(products, orders, nil, true)

	for i := 0; i < 25; i++ {
		o := placeOrder(t, uc, "buyer-1", 1)
		// distinct timestamps so newest-first ordering is observable
		orders.mu.Lock()
		orders.items[o.ID].CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		orders.mu.Unlock()
	}
	placeOrder(t, uc, "someone-else", 1)

	owner := testUser("buyer-1", domain.RoleUser)

	page, err := uc.ListMine(context.Background(), owner, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Count)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.Pages)

	// defaults: page=1, limit=10, newest first
	page, err = uc.ListMine(context.Background(), owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Count)
	require.NotEmpty(t, page.Items)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
}

func TestPayTransition(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "10.00", 10))
	uc := usecase.NewOrders(products, newMemOrders(), nil, true)
	order := placeOrder(t, uc, "buyer-1", 1)
	owner := testUser("buyer-1", domain.RoleUser)

	paid, err := uc.Pay(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, domain.StatusProcessing, paid.Status)

	// replaying from processing is accepted
	_, err = uc.Pay(context.Background(), owner, order.ID)
	assert.NoError(t, err)

	// paying has no stock side effects
	assert.Equal(t, 9, products.stock("p1"))
}

func TestPayRejectedAfterCancel(t *testing.T) {
	uc := usecase.NewOrders(newMemProducts(testProduct("p1", "Widget", "10.00", 10)), newMemOrders(), nil, true)
	order := placeOrder(t, uc, "buyer-1", 1)
	owner := testUser("buyer-1", domain.RoleUser)

	_, err := uc.Cancel(context.Background(), owner, order.ID)
	require.NoError(t, err)

	_, err = uc.Pay(context.Background(), owner, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestPayOwnershipPolicy(t *testing.T) {
	stranger := testUser("buyer-2", domain.RoleUser)
	admin := testUser("root", domain.RoleAdmin)

	t.Run("restricted", func(t *testing.T) {
		uc := usecase.NewOrders(newMemProducts(testProduct("p1", "Widget", "10.00", 10)), newMemOrders(), nil, true)
		order := placeOrder(t, uc, "buyer-1", 1)

		_, err := uc.Pay(context.Background(), stranger, order.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = uc.Pay(context.Background(), admin, order.ID)
		assert.NoError(t, err)
	})

	t.Run("permissive", func(t *testing.T) {
		uc := usecase.NewOrders(newMemProducts(testProduct("p1", "Widget", "10.00", 10)), newMemOrders(), nil, false)
		order := placeOrder(t, uc, "buyer-1", 1)

		_, err := uc.Pay(context.Background(), stranger, order.ID)
		assert.NoError(t, err)
	})
}

func TestCancelRestoresStock(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "10.00", 5))
	uc := usecase.NewOrders(products, newMemOrders(), nil, true)
	order := placeOrder(t, uc, "buyer-1", 2)
	require.Equal(t, 3, products.stock("p1"))

	owner := testUser("buyer-1", domain.RoleUser)
	cancelled, err := uc.Cancel(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, products.stock("p1"))
}

func TestCancelRestoresStockDespiteCatalogEdits(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "10.00", 5))
	uc := usecase.NewOrders(products, newMemOrders(), nil, true)
	order := placeOrder(t, uc, "buyer-1", 2)

	// someone restocks the product in the meantime
	require.NoError(t, products.IncrementStock(context.Background(), "p1", 100))
	require.Equal(t, 103, products.stock("p1"))

	owner := testUser("buyer-1", domain.RoleUser)
	_, err := uc.Cancel(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, products.stock("p1"), "exactly the ordered quantity comes back")
}

func TestCancelRules(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "10.00", 10))
	orders := newMemOrders()
	uc := usecase.NewOrders(products, orders, nil, true)

	owner := testUser("buyer-1", domain.RoleUser)
	stranger := testUser("buyer-2", domain.RoleUser)

	t.Run("forbidden for stranger", func(t *testing.T) {
		order := placeOrder(t, uc, "buyer-1", 1)
		_, err := uc.Cancel(context.Background(), stranger, order.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("delivered orders cannot be cancelled", func(t *testing.T) {
		order := placeOrder(t, uc, "buyer-1", 1)
		orders.mu.Lock()
		orders.items[order.ID].IsDelivered = true
		orders.mu.Unlock()

		_, err := uc.Cancel(context.Background(), owner, order.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("second cancel never restocks twice", func(t *testing.T) {
		order := placeOrder(t, uc, "buyer-1", 2)
		before := products.stock("p1")

		_, err := uc.Cancel(context.Background(), owner, order.ID)
		require.NoError(t, err)
		require.Equal(t, before+2, products.stock("p1"))

		_, err = uc.Cancel(context.Background(), owner, order.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, before+2, products.stock("p1"))
	})

	t.Run("admin may cancel any order", func(t *testing.T) {
		order := placeOrder(t, uc, "buyer-1", 1)
		admin := testUser("root", domain.RoleAdmin)
		_, err := uc.Cancel(context.Background(), admin, order.ID)
		assert.NoError(t, err)
	})
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	products := newMemProducts(testProduct("p1", "Widget", "10.00", 10))
	uc := usecase.NewOrders(products, newMemOrders(), nil, true)

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			in := validInput(usecase.RequestedItem{ProductID: "p1", Quantity: 3})
			in.UserID = fmt.Sprintf("buyer-%d", n)
			_, err := uc.Create(context.Background(), in)
			errs <- err
		}(i)
	}

	var ok, rejected int
	for i := 0; i < workers; i++ {
		if err := <-errs; err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			rejected++
		}
	}

	assert.Equal(t, 3, ok, "only three orders of qty 3 fit in stock 10")
	assert.Equal(t, workers-3, rejected)
	assert.Equal(t, 1, products.stock("p1"))
}
