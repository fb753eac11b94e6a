package middleware

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Metrics records request count and latency per matched route.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// Route templates keep label cardinality bounded.
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		// c.Method() aliases the pooled request buffer; label values outlive it.
		metrics.ObserveRequest(utils.CopyString(c.Method()), route, status, time.Since(start))
		return err
	}
}
