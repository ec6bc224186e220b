package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/site"
)

// Price returns a handler for POST /api/v1/price.
//
// A found price answers 200 with the result. A failed check answers with
// the mapped status, the result (site and currency are still known) and an
// error carrying the generic suggestion.
func Price(pc PriceChecker, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.PriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx, cancel := withTimeout(c.Request.Context(), timeout)
		defer cancel()
		res, hit := pc.ExtractCached(ctx, req.URL, req.MaxAge)

		resp := models.PriceResponse{
			Success: res.OK(),
			Result:  &res,
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		}
		if req.MaxAge > 0 {
			resp.CacheStatus = "miss"
			if hit {
				resp.CacheStatus = "hit"
			}
		}
		if pe := res.Err(); pe != nil {
			resp.Error = pe.ToDetail()
			c.JSON(mapErrorToStatus(pe), resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Classify returns a handler for POST /api/v1/classify. It never touches
// the network.
func Classify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		s := site.Classify(req.URL)
		c.JSON(http.StatusOK, models.ClassifyResponse{
			URL:            req.URL,
			Site:           string(s.ID),
			Currency:       s.Currency,
			CurrencySymbol: s.Symbol,
			Supported:      s.Known(),
		})
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
