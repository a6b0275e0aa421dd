package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/database"
	"github.com/novafs/lms-api/utils/response"
)

// Pinger is an optional dependency probed by the health check.
// *cache.RedisCache satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HandleCheckHealth reports liveness and database reachability. cache may be
// nil; a cache outage is reported but does not fail the check.
func HandleCheckHealth(store database.Storage, cache Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			log.Errorw("health check failed", "error", err)
			return response.ServiceUnavailable(c, "Database unavailable")
		}

		cacheStatus := "disabled"
		if cache != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
			defer cancel()

			cacheStatus = "ok"
			if err := cache.Ping(ctx); err != nil {
				log.Warnw("cache ping failed", "error", err)
				cacheStatus = "unavailable"
			}
		}

		return c.JSON(fiber.Map{
			"status": "ok",
			"cache":  cacheStatus,
		})
	}
}
