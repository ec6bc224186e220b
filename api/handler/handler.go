// Package handler implements the pricewatch HTTP endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/store"
)

// PriceChecker runs price checks. *tracker.Service implements it.
type PriceChecker interface {
	ExtractCached(ctx context.Context, url string, maxAgeMs int) (models.ExtractionResult, bool)
}

// AlertStore is the alert persistence used by the alert endpoints.
// *store.Store implements it.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context, owner string) ([]models.Alert, error)
	DeleteAlert(ctx context.Context, owner string, id int64) error
	History(ctx context.Context, owner string, alertID int64, limit int) ([]models.PricePoint, error)
	RecordPrice(ctx context.Context, p models.PricePoint, productName string) error
}

// respondError maps an error to the correct HTTP status code and writes
// a structured JSON error response. Raw error text never reaches the
// client.
func respondError(c *gin.Context, err error) {
	var pe *models.PriceError
	if !errors.As(err, &pe) {
		switch {
		case errors.Is(err, store.ErrNotFound):
			pe = models.NewPriceError(models.ErrCodeNotFound, "alert not found", err)
		default:
			pe = models.NewPriceError(models.ErrCodeInternal, "internal error", err)
		}
	}

	c.JSON(mapErrorToStatus(pe), models.ErrorResponse{
		Success: false,
		Error:   pe.ToDetail(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: msg},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.PriceError) int {
	switch e.Code {
	case models.ErrCodeFetch, models.ErrCodeParse:
		return http.StatusBadGateway // 502
	case models.ErrCodeExtraction:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
