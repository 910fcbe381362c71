package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/logging"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

// debugErrorsKey carries the per-router flag controlling whether 500
// responses expose the underlying error text; never on in prod.
const debugErrorsKey = "debugErrors"

func debugErrorsOn(c *gin.Context) bool {
	v, ok := c.Get(debugErrorsKey)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, code int, msg string, data any) {
	body := gin.H{"success": true, "message": msg}
	if data != nil {
		body["data"] = data
	}
	c.JSON(code, body)
}

func respondPage[T any](c *gin.Context, p usecase.Page[T]) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   p.Count,
		"total":   p.Total,
		"page":    p.Page,
		"pages":   p.Pages,
		"data":    p.Items,
	})
}

// respondErr is the single funnel every handler failure goes through.
// It maps the domain taxonomy onto HTTP codes and the {status, message}
// error envelope.
func respondErr(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	}

	status := "fail"
	msg := err.Error()
	if code == http.StatusInternalServerError {
		status = "error"
		logging.From(c).Error("unexpected failure", "error", err)
		if !debugErrorsOn(c) {
			msg = "Internal server error"
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"status": status, "message": msg})
}
