package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryFood        Category = "Food"
	CategoryBooks       Category = "Books"
	CategorySports      Category = "Sports"
	CategoryHome        Category = "Home"
	CategoryBeauty      Category = "Beauty"
	CategoryToys        Category = "Toys"
	CategoryOther       Category = "Other"
)

var categories = map[Category]struct{}{
	CategoryElectronics: {}, CategoryClothing: {}, CategoryFood: {},
	CategoryBooks: {}, CategorySports: {}, CategoryHome: {},
	CategoryBeauty: {}, CategoryToys: {}, CategoryOther: {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

type Product struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice,omitempty"`
	Category      Category        `json:"category"`
	SubCategory   string          `json:"subCategory,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	Stock         int             `json:"stock"`
	Images        []string        `json:"images"`
	Thumbnail     string          `json:"thumbnail,omitempty"`
	SKU           string          `json:"sku"`
	Tags          []string        `json:"tags"`
	Rating        decimal.Decimal `json:"rating"`
	ReviewsCount  int             `json:"reviewsCount"`
	IsActive      bool            `json:"isActive"`
	IsFeatured    bool            `json:"isFeatured"`
	Discount      int             `json:"discount"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (p *Product) Validate() error {
	if p.Name == "" || len(p.Name) > 200 {
		return fmt.Errorf("%w: product name required, max 200 chars", ErrInvalidRequest)
	}
	if p.Description == "" || len(p.Description) > 2000 {
		return fmt.Errorf("%w: product description required, max 2000 chars", ErrInvalidRequest)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, p.Category)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidRequest)
	}
	if p.SKU == "" {
		return fmt.Errorf("%w: sku required", ErrInvalidRequest)
	}
	if p.Discount < 0 || p.Discount > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidRequest)
	}
	return nil
}

// Image returns the representative image snapshotted into order line items.
func (p *Product) Image() string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
