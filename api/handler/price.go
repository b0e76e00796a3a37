package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricenote/api/middleware"
	"github.com/use-agent/pricenote/cache"
	"github.com/use-agent/pricenote/models"
	"github.com/use-agent/pricenote/webhook"
)

// Price returns a handler for POST /api/v1/price.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when max_age > 0.
//  3. PriceService.FetchPrice  (navigation + locate timings)
//  4. Cache store, webhook, respond.
//
// cc may be nil to disable caching.
func Price(ps PriceService, cc *cache.Cache, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.PriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.PriceResponse{
				Success: false,
				URL:     req.URL,
				Error:   invalidInput(err).ToDetail(),
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, req.FetchMode, ps.Selectors())
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 3. Locate ───────────────────────────────────────────────
		result, err := ps.FetchPrice(c.Request.Context(), &req)
		if err != nil {
			se := asScrapeError(err)
			resp := models.PriceResponse{
				Success: false,
				URL:     req.URL,
				Error:   se.ToDetail(),
				Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
			}
			notify(c, req.WebhookURL, webhookSecret, webhook.EventPriceFailed, &resp)
			c.JSON(mapErrorToStatus(se), resp)
			return
		}

		resp := models.PriceResponse{
			Success:    true,
			Price:      result.Price,
			Selector:   result.Selector,
			URL:        req.URL,
			EngineUsed: result.EngineUsed,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: result.Navigation.Milliseconds(),
				LocateMs:     result.Locate.Milliseconds(),
			},
		}

		// ── 4. Cache store + webhook ────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, &resp)
			resp.CacheStatus = "miss"
		}
		notify(c, req.WebhookURL, webhookSecret, webhook.EventPriceChecked, &resp)

		c.JSON(http.StatusOK, resp)
	}
}

func notify(c *gin.Context, url, secret, eventType string, resp *models.PriceResponse) {
	if url == "" {
		return
	}
	webhook.DeliverAsync(url, secret, &webhook.Event{
		Type:      eventType,
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().Unix(),
		Data:      *resp,
	})
}
