package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/logging"
)

// Orders is the order workflow: validate -> price -> persist -> decrement,
// plus the pay/cancel transitions and the read paths.
type Orders struct {
	products ProductStore
	orders   OrderStore
	idem     IdempotencyStore

	// restrictPay gates the pay transition to owner/admin. Off reproduces
	// the legacy behavior where any authenticated caller could mark an
	// order paid.
	restrictPay bool
}

func NewOrders(products ProductStore, orders OrderStore, idem IdempotencyStore, restrictPay bool) *Orders {
	return &Orders{products: products, orders: orders, idem: idem, restrictPay: restrictPay}
}

type RequestedItem struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID          string
	IdempotencyKey  string
	Items           []RequestedItem
	ShippingAddress domain.ShippingAddress
	PaymentMethod   domain.PaymentMethod
	TaxPrice        decimal.Decimal
	ShippingPrice   decimal.Decimal
}

func (in *CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: no order items", domain.ErrInvalidRequest)
	}
	for _, it := range in.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: missing product reference", domain.ErrInvalidRequest)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidRequest)
		}
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidRequest, in.PaymentMethod)
	}
	if in.TaxPrice.IsNegative() || in.ShippingPrice.IsNegative() {
		return fmt.Errorf("%w: tax and shipping cannot be negative", domain.ErrInvalidRequest)
	}
	return in.ShippingAddress.Validate()
}

// Create builds an order from the requested items. Stock is taken with a
// per-item conditional decrement; if a later item cannot be satisfied,
// every decrement already made is compensated before the error returns.
func (uc *Orders) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Fast path: idempotency recall
	locked := false
	if uc.idem != nil && in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, in.UserID, in.IdempotencyKey); ok {
			if o, err := uc.orders.GetByID(ctx, id); err == nil && o != nil {
				return o, nil
			}
		}
		ok, err := uc.idem.TryLock(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: duplicate order request", domain.ErrConflict)
		}
		locked = true
	}

	order, err := uc.place(ctx, in)
	if err != nil {
		// a failed attempt must not poison retries with the same key
		if locked {
			if uerr := uc.idem.Unlock(ctx, in.UserID, in.IdempotencyKey); uerr != nil {
				logging.FromCtx(ctx).Error("idempotency unlock failed",
					"user_id", in.UserID, "error", uerr)
			}
		}
		return nil, err
	}

	if locked {
		_ = uc.idem.Remember(ctx, in.UserID, in.IdempotencyKey, order.ID)
	}
	return order, nil
}

func (uc *Orders) place(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	// Snapshot the catalog state into line items. A missing or inactive
	// product aborts the whole order.
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, req := range in.Items {
		p, err := uc.products.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsActive {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, req.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  req.Quantity,
			Price:     p.Price,
			Image:     p.Image(),
		})
	}

	// Take stock item by item; roll back on the first failure.
	taken := make([]domain.OrderItem, 0, len(items))
	compensate := func() {
		for _, it := range taken {
			if err := uc.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				logging.FromCtx(ctx).Error("stock compensation failed",
					"product_id", it.ProductID, "qty", it.Quantity, "error", err)
			}
		}
	}
	for _, it := range items {
		ok, err := uc.products.DecrementStockIf(ctx, it.ProductID, it.Quantity)
		if err != nil {
			compensate()
			return nil, err
		}
		if !ok {
			compensate()
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, it.Name)
		}
		taken = append(taken, it)
	}

	now := time.Now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.TotalPrice = order.ItemsTotal().Add(in.TaxPrice).Add(in.ShippingPrice)

	if err := uc.orders.Insert(ctx, order); err != nil {
		compensate()
		return nil, err
	}
	return order, nil
}
