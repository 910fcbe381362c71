package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dtnguyen/shop-api/internal/adapter/http/middleware"
	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

type ProductHandler struct {
	catalog *usecase.Catalog
}

func NewProductHandler(catalog *usecase.Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	f := usecase.ProductFilter{
		Category: domain.Category(c.Query("category")),
		Featured: c.Query("isFeatured") == "true",
		Sort:     c.Query("sort"),
		Page:     page,
		Limit:    limit,
	}
	if raw := c.Query("minPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			respondErr(c, fmt.Errorf("%w: bad minPrice", domain.ErrInvalidRequest))
			return
		}
		f.MinPrice = &d
	}
	if raw := c.Query("maxPrice"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			respondErr(c, fmt.Errorf("%w: bad maxPrice", domain.ErrInvalidRequest))
			return
		}
		f.MaxPrice = &d
	}

	result, err := h.catalog.List(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondPage(c, result)
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "data": products})
}

func (h *ProductHandler) GetFeaturedProducts(c *gin.Context) {
	products, err := h.catalog.FeaturedProducts(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "data": products})
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, p)
}

type createProductReq struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"required"`
	SubCategory string          `json:"subCategory"`
	Brand       string          `json:"brand"`
	Stock       int             `json:"stock" binding:"min=0"`
	Images      []string        `json:"images"`
	Thumbnail   string          `json:"thumbnail"`
	SKU         string          `json:"sku" binding:"required"`
	Tags        []string        `json:"tags"`
	Discount    int             `json:"discount" binding:"min=0,max=100"`
	IsFeatured  bool            `json:"isFeatured"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err))
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), middleware.CurrentUser(c), usecase.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    domain.Category(req.Category),
		SubCategory: req.SubCategory,
		Brand:       req.Brand,
		Stock:       req.Stock,
		Images:      req.Images,
		Thumbnail:   req.Thumbnail,
		SKU:         req.SKU,
		Tags:        req.Tags,
		Discount:    req.Discount,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, p)
}

type updateProductReq struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	SubCategory *string          `json:"subCategory"`
	Brand       *string          `json:"brand"`
	Stock       *int             `json:"stock"`
	Images      []string         `json:"images"`
	Thumbnail   *string          `json:"thumbnail"`
	Tags        []string         `json:"tags"`
	Discount    *int             `json:"discount"`
	IsActive    *bool            `json:"isActive"`
	IsFeatured  *bool            `json:"isFeatured"`
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req updateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err))
		return
	}

	in := usecase.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SubCategory: req.SubCategory,
		Brand:       req.Brand,
		Stock:       req.Stock,
		Images:      req.Images,
		Thumbnail:   req.Thumbnail,
		Tags:        req.Tags,
		Discount:    req.Discount,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
	}
	if req.Category != nil {
		cat := domain.Category(*req.Category)
		in.Category = &cat
	}

	p, err := h.catalog.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Product deleted", nil)
}
