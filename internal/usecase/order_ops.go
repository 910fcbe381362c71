package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/dtnguyen/shop-api/internal/entity"
)

const defaultOrderPageSize = 10

// GetByID returns a single order, visible only to its owner or an admin.
func (uc *Orders) GetByID(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if o.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: not your order", domain.ErrForbidden)
	}
	return o, nil
}

// ListMine pages the caller's own orders, newest first.
func (uc *Orders) ListMine(ctx context.Context, caller *domain.User, page, limit int) (Page[domain.Order], error) {
	page, limit = clampPaging(page, limit, defaultOrderPageSize)
	items, total, err := uc.orders.ListByUser(ctx, caller.ID, page, limit)
	if err != nil {
		return Page[domain.Order]{}, err
	}
	return newPage(items, total, page, limit), nil
}

// Pay marks the order paid and moves it to processing. Replaying the
// transition on an already-processing order is accepted.
func (uc *Orders) Pay(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if uc.restrictPay && o.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: not your order", domain.ErrForbidden)
	}

	now := time.Now()
	ok, err := uc.orders.MarkPaid(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, o.Status)
	}

	o.IsPaid = true
	o.PaidAt = &now
	o.Status = domain.StatusProcessing
	o.UpdatedAt = now
	return o, nil
}

// Cancel moves the order to cancelled and restores the stock taken at
// creation, line item by line item. Delivered orders cannot be cancelled,
// and a second cancel never restocks twice.
func (uc *Orders) Cancel(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if o.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: not your order", domain.ErrForbidden)
	}
	if o.IsDelivered {
		return nil, fmt.Errorf("%w: cannot cancel delivered order", domain.ErrInvalidTransition)
	}

	ok, err := uc.orders.CancelIf(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, o.Status)
	}

	// Restore exactly the quantities snapshotted at creation.
	for _, it := range o.Items {
		if err := uc.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}

	o.Status = domain.StatusCancelled
	o.UpdatedAt = time.Now()
	return o, nil
}
