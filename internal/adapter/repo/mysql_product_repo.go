package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

const productCols = `id,name,description,price,original_price,category,sub_category,brand,stock,
images,thumbnail,sku,tags,rating,reviews_count,is_active,is_featured,discount,created_by,created_at,updated_at`

func (r *MySQLProductRepo) Insert(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO products (`+productCols+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Description, p.Price, nullDec(p.OriginalPrice),
		string(p.Category), nullStr(p.SubCategory), nullStr(p.Brand), p.Stock,
		marshalStrings(p.Images), nullStr(p.Thumbnail), p.SKU, marshalStrings(p.Tags),
		p.Rating, p.ReviewsCount, p.IsActive, p.IsFeatured, p.Discount,
		p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	return translateErr(err)
}

func (r *MySQLProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productCols+` FROM products WHERE id=?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *MySQLProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE products SET name=?, description=?, price=?, original_price=?, category=?,
sub_category=?, brand=?, stock=?, images=?, thumbnail=?, tags=?, rating=?,
reviews_count=?, is_active=?, is_featured=?, discount=?, updated_at=?
WHERE id=?`,
		p.Name, p.Description, p.Price, nullDec(p.OriginalPrice), string(p.Category),
		nullStr(p.SubCategory), nullStr(p.Brand), p.Stock, marshalStrings(p.Images),
		nullStr(p.Thumbnail), marshalStrings(p.Tags), p.Rating,
		p.ReviewsCount, p.IsActive, p.IsFeatured, p.Discount, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return translateErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

func (r *MySQLProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *MySQLProductRepo) List(ctx context.Context, f usecase.ProductFilter) ([]domain.Product, int, error) {
	where := []string{"is_active = 1"}
	args := []any{}

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Featured {
		where = append(where, "is_featured = 1")
	}
	cond := strings.Join(where, " AND ")

	order := "created_at DESC"
	switch f.Sort {
	case "price-asc":
		order = "price ASC"
	case "price-desc":
		order = "price DESC"
	case "rating":
		order = "rating DESC"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		productCols, cond, order)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectProducts(rows)
	return items, total, err
}

func (r *MySQLProductRepo) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+productCols+` FROM products
WHERE MATCH(name, description, tags) AGAINST (? IN NATURAL LANGUAGE MODE)
AND is_active = 1
LIMIT ?`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *MySQLProductRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+productCols+` FROM products
WHERE is_featured = 1 AND is_active = 1
ORDER BY created_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// DecrementStockIf is the single check-and-take step of the order workflow.
// The WHERE clause guarantees stock never goes negative.
func (r *MySQLProductRepo) DecrementStockIf(ctx context.Context, id string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE products SET stock = stock - ?, updated_at = NOW()
WHERE id = ? AND stock >= ?`, qty, id, qty)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLProductRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE products SET stock = stock + ?, updated_at = NOW()
WHERE id = ?`, qty, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                             domain.Product
		category                      string
		subCategory, brand, thumbnail sql.NullString
		originalPrice                 decimal.NullDecimal
		images, tags                  string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &originalPrice,
		&category, &subCategory, &brand, &p.Stock,
		&images, &thumbnail, &p.SKU, &tags,
		&p.Rating, &p.ReviewsCount, &p.IsActive, &p.IsFeatured, &p.Discount,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = domain.Category(category)
	if originalPrice.Valid {
		p.OriginalPrice = originalPrice.Decimal
	}
	p.SubCategory = subCategory.String
	p.Brand = brand.String
	p.Thumbnail = thumbnail.String
	p.Images = unmarshalStrings(images)
	p.Tags = unmarshalStrings(tags)
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

var _ usecase.ProductStore = (*MySQLProductRepo)(nil)
