package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"leadrank/internal/caching"

	"github.com/labstack/echo/v4"
)

const (
	freePlanRequestsPerMinute = 20
	paidPlanRequestsPerMinute = 600
)

func requestsPerMinute(plan string) int {
	switch plan {
	case "trial", "demo":
		return freePlanRequestsPerMinute
	default:
		return paidPlanRequestsPerMinute
	}
}

// RateLimitMiddleware throttles capture-API requests per workspace.
// Free tiers get a tight budget; paid tiers a generous one. Must run
// after APIKeyMiddleware.
func RateLimitMiddleware(cacheSvc caching.CacheService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant := TenantFromEchoContext(c)
			if tenant == nil {
				return next(c)
			}

			limit := requestsPerMinute(tenant.Plan)
			key := fmt.Sprintf("tenant:%s", tenant.ID)
			limited, err := cacheSvc.IsRateLimited(c.Request().Context(), key, limit, time.Minute)
			if err != nil {
				// Fail open: a cache outage must not take the capture
				// API down with it.
				log.Printf("WARN: rate limit check failed for tenant %s: %v", tenant.ID, err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded, retry in a minute")
			}
			return next(c)
		}
	}
}
