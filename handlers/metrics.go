package handlers

import (
	"fmt"
	"runtime"

	"github.com/gofiber/fiber/v2"

	"gamecollection/database"
	"gamecollection/middleware"
)

func GetMetrics(store *database.GameStore, stats *middleware.LatencyStats) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := store.Stats(c.UserContext())
		if err != nil {
			return storeError(c, err)
		}

		return c.JSON(fiber.Map{
			"database": fiber.Map{
				"total_games":     st.TotalGames,
				"completed_games": st.CompletedGames,
				"total_hours":     st.TotalHours,
				"size_mb":         fmt.Sprintf("%.2f MB", float64(st.SizeBytes)/1024/1024),
			},
			"system": fiber.Map{
				"goroutines": runtime.NumGoroutine(),
				"latency_ms": fiber.Map{
					"p50":     fmt.Sprintf("%.2f", stats.GetPercentile(50)),
					"p95":     fmt.Sprintf("%.2f", stats.GetPercentile(95)),
					"p99":     fmt.Sprintf("%.2f", stats.GetPercentile(99)),
					"samples": stats.SampleCount(),
				},
			},
		})
	}
}
