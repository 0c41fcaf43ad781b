package handler

import (
	"net/http"
	"time"

	"opportunity-service/internal/seed"
	"opportunity-service/pkg/database"
	"opportunity-service/pkg/logger"
	"opportunity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ResetDemoData wipes both tables and recreates the demo seed data so
// demonstrations are repeatable. The route is only registered when
// DEMO_ENABLED is set.
func ResetDemoData(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.DemoResetCounter.Inc()

	start := time.Now()
	log.Info("Starting demo data reset")

	result, err := seed.Reset(database.GetDB(), time.Now().UTC())
	if err != nil {
		log.Error("Failed to reset demo data",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"detail":     "Failed to reset demo data",
			"error_code": "server_error",
		})
	}

	log.Info("Demo data reset successfully",
		zap.Int("tenants_created", result.Tenants),
		zap.Int("opportunities_created", result.Opportunities),
		zap.Duration("duration", time.Since(start)))

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Demo data reset successfully",
		"tenants":       result.Tenants,
		"opportunities": result.Opportunities,
	})
}
