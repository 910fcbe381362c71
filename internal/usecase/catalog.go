package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/dtnguyen/shop-api/internal/entity"
)

const (
	defaultProductPageSize = 12
	searchResultCap        = 20
	featuredResultCap      = 10
)

// Catalog owns product reads and writes. The order workflow only ever
// touches stock through the atomic decrement/increment ports.
type Catalog struct {
	products ProductStore
}

func NewCatalog(products ProductStore) *Catalog {
	return &Catalog{products: products}
}

func (uc *Catalog) List(ctx context.Context, f ProductFilter) (Page[domain.Product], error) {
	if f.Category != "" && !f.Category.Valid() {
		return Page[domain.Product]{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, f.Category)
	}
	switch f.Sort {
	case "", "newest", "price-asc", "price-desc", "rating":
	default:
		return Page[domain.Product]{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidRequest, f.Sort)
	}
	f.Page, f.Limit = clampPaging(f.Page, f.Limit, defaultProductPageSize)

	items, total, err := uc.products.List(ctx, f)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return newPage(items, total, f.Page, f.Limit), nil
}

func (uc *Catalog) Search(ctx context.Context, query string) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidRequest)
	}
	return uc.products.Search(ctx, query, searchResultCap)
}

func (uc *Catalog) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return uc.products.Featured(ctx, featuredResultCap)
}

func (uc *Catalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	return p, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    domain.Category
	SubCategory string
	Brand       string
	Stock       int
	Images      []string
	Thumbnail   string
	SKU         string
	Tags        []string
	Discount    int
	IsFeatured  bool
}

func (uc *Catalog) Create(ctx context.Context, caller *domain.User, in CreateProductInput) (*domain.Product, error) {
	now := time.Now()
	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		SubCategory: in.SubCategory,
		Brand:       in.Brand,
		Stock:       in.Stock,
		Images:      in.Images,
		Thumbnail:   in.Thumbnail,
		SKU:         strings.ToUpper(strings.TrimSpace(in.SKU)),
		Tags:        in.Tags,
		IsActive:    true,
		IsFeatured:  in.IsFeatured,
		Discount:    in.Discount,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// SKU uniqueness is enforced by the store; a duplicate surfaces as
	// domain.ErrConflict.
	if err := uc.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProductInput carries only the fields the caller wants to change.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *domain.Category
	SubCategory *string
	Brand       *string
	Stock       *int
	Images      []string
	Thumbnail   *string
	Tags        []string
	Discount    *int
	IsActive    *bool
	IsFeatured  *bool
}

func (uc *Catalog) Update(ctx context.Context, caller *domain.User, id string, in UpdateProductInput) (*domain.Product, error) {
	p, err := uc.ownedProduct(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.SubCategory != nil {
		p.SubCategory = *in.SubCategory
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Thumbnail != nil {
		p.Thumbnail = *in.Thumbnail
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	p.UpdatedAt = time.Now()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := uc.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *Catalog) Delete(ctx context.Context, caller *domain.User, id string) error {
	if _, err := uc.ownedProduct(ctx, caller, id); err != nil {
		return err
	}
	return uc.products.Delete(ctx, id)
}

func (uc *Catalog) ownedProduct(ctx context.Context, caller *domain.User, id string) (*domain.Product, error) {
	p, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	if p.CreatedBy != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: not your product", domain.ErrForbidden)
	}
	return p, nil
}
