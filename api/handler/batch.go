package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
	"golang.org/x/sync/errgroup"
)

// Batch returns a handler for POST /api/v1/price/batch.
//
// URLs are checked concurrently, at most concurrency at a time, and results
// keep the request order. One URL failing never fails the others.
func Batch(pc PriceChecker, concurrency int, timeout time.Duration) gin.HandlerFunc {
	if concurrency <= 0 {
		concurrency = 4
	}
	return func(c *gin.Context) {
		start := time.Now()

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx, cancel := withTimeout(c.Request.Context(), timeout)
		defer cancel()

		results := make([]*models.ExtractionResult, len(req.URLs))
		var g errgroup.Group
		g.SetLimit(concurrency)
		for i, u := range req.URLs {
			g.Go(func() error {
				res, _ := pc.ExtractCached(ctx, u, req.MaxAge)
				results[i] = &res
				return nil
			})
		}
		g.Wait()

		resp := models.BatchResponse{
			Total:   len(results),
			Results: results,
		}
		for _, r := range results {
			if r.OK() {
				resp.Succeeded++
			} else {
				resp.Failed++
			}
		}
		resp.Success = resp.Succeeded > 0
		resp.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
		c.JSON(http.StatusOK, resp)
	}
}
