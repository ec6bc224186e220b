package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/api/middleware"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/site"
)

// CreateAlert returns a handler for POST /api/v1/alerts.
//
// The product is checked once up front so the alert starts with a current
// price; a failed check still creates the alert.
func CreateAlert(st AlertStore, pc PriceChecker, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AlertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		s := site.Classify(req.URL)
		a := &models.Alert{
			Owner:       middleware.Identity(c),
			URL:         req.URL,
			TargetPrice: req.TargetPrice,
			Site:        string(s.ID),
			Currency:    s.Currency,
		}

		ctx, cancel := withTimeout(c.Request.Context(), timeout)
		defer cancel()
		res, _ := pc.ExtractCached(ctx, req.URL, 0)
		if res.OK() {
			a.CurrentPrice = res.Price
			a.ProductName = res.ProductName
		}

		if err := st.CreateAlert(c.Request.Context(), a); err != nil {
			respondError(c, err)
			return
		}
		if res.OK() {
			p := models.PricePoint{
				AlertID:    a.ID,
				Price:      *res.Price,
				Currency:   res.Currency,
				Site:       res.Site,
				RecordedAt: res.CheckedAt,
			}
			if err := st.RecordPrice(c.Request.Context(), p, res.ProductName); err != nil {
				slog.Warn("record initial price failed", "alert_id", a.ID, "error", err)
			}
		}
		c.JSON(http.StatusCreated, models.AlertResponse{Success: true, Alert: a})
	}
}

// ListAlerts returns a handler for GET /api/v1/alerts.
func ListAlerts(st AlertStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		alerts, err := st.ListAlerts(c.Request.Context(), middleware.Identity(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.AlertListResponse{Success: true, Alerts: alerts})
	}
}

// DeleteAlert returns a handler for DELETE /api/v1/alerts/:id.
func DeleteAlert(st AlertStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := alertID(c)
		if !ok {
			return
		}
		if err := st.DeleteAlert(c.Request.Context(), middleware.Identity(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// AlertHistory returns a handler for GET /api/v1/alerts/:id/history.
// The optional limit query parameter caps the number of points.
func AlertHistory(st AlertStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := alertID(c)
		if !ok {
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
		if err != nil || limit <= 0 || limit > 1000 {
			badRequest(c, "limit must be between 1 and 1000")
			return
		}
		points, err := st.History(c.Request.Context(), middleware.Identity(c), id, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.HistoryResponse{Success: true, AlertID: id, Points: points})
	}
}

func alertID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "alert id must be a positive integer")
		return 0, false
	}
	return id, true
}
