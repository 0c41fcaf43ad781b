package middleware

import (
	"net/http"

	"opportunity-service/pkg/logger"
	"opportunity-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHeader carries the caller's tenant identifier on every API request
const TenantHeader = "X-Tenant-ID"

// TenantMiddleware validates the tenant identifier header and stores the
// parsed tenant ID in the request context. The check runs before any
// storage access; there is no default or anonymous tenant. The header is
// only validated syntactically here — tenant scoping itself is enforced by
// the WHERE clause of every ledger query.
func TenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		header := c.Request().Header.Get(TenantHeader)
		if header == "" {
			log.Warn("Missing tenant ID header",
				zap.String("path", c.Request().URL.Path),
				zap.String("method", c.Request().Method))
			prometheus.InvalidTenantCounter.Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{
				"detail":     "X-Tenant-ID header is required",
				"error_code": "invalid_tenant",
			})
		}

		tenantID, err := uuid.Parse(header)
		if err != nil {
			log.Warn("Invalid tenant ID format",
				zap.String("tenant_id", header),
				zap.String("path", c.Request().URL.Path))
			prometheus.InvalidTenantCounter.Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{
				"detail":     "X-Tenant-ID must be a valid UUID",
				"error_code": "invalid_tenant",
			})
		}

		// Store the tenant ID for handlers and enrich the request logger
		c.Set("tenant_id", tenantID)
		c.Set("logger", log.With(zap.String("tenant_id", tenantID.String())))

		return next(c)
	}
}
