package handler

import (
	"errors"
	"net/http"
	"time"

	"opportunity-service/internal/ledger"
	"opportunity-service/pkg/database"
	"opportunity-service/pkg/logger"
	"opportunity-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CompleteActionRequest defines the body of a complete-action request
type CompleteActionRequest struct {
	NewNextActionAt      time.Time `json:"new_next_action_at"`
	NewNextActionDetails string    `json:"new_next_action_details"`
}

// ListDueActions returns all opportunities of the current tenant whose
// next action is due or overdue, most overdue first
func ListDueActions(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOpportunityOperation("list_due")

	// Extract tenant ID from context (set by TenantMiddleware)
	tenantID, ok := c.Get("tenant_id").(uuid.UUID)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.InvalidTenantCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{
			"detail":     "tenant identifier is required",
			"error_code": "invalid_tenant",
		})
	}

	now := time.Now().UTC()

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	actions, err := ledger.New(database.GetDB()).ListDueActions(c.Request().Context(), tenantID, now)
	if err != nil {
		log.Error("Failed to fetch due opportunities",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"detail":     "Failed to retrieve due opportunities",
			"error_code": "server_error",
		})
	}

	// Urgency is presentation-only and never part of the wire shape; the
	// tier distribution is still worth observing.
	for _, action := range actions {
		prometheus.RecordDueActionUrgency(string(ledger.ClassifyUrgency(action.NextActionAt, now)))
	}

	log.Info("Due opportunities retrieved",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("count", len(actions)))
	return c.JSON(http.StatusOK, actions)
}

// CompleteAction completes the current action of an opportunity and
// schedules the next one in a single atomic update
func CompleteAction(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOpportunityOperation("complete_action")

	// Extract tenant ID from context (set by TenantMiddleware)
	tenantID, ok := c.Get("tenant_id").(uuid.UUID)
	if !ok {
		log.Warn("Missing tenant_id in context")
		prometheus.InvalidTenantCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{
			"detail":     "tenant identifier is required",
			"error_code": "invalid_tenant",
		})
	}

	// An unparsable ID cannot resolve to a row, which is the same outcome
	// as a wrong ID. Reporting it as not found keeps the response
	// identical for wrong-id and wrong-tenant requests.
	opportunityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Warn("Invalid opportunity ID", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{
			"detail":     "Opportunity not found",
			"error_code": "not_found",
		})
	}

	var req CompleteActionRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request body",
			zap.String("opportunity_id", opportunityID.String()),
			zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"detail":     "request body must contain new_next_action_at (ISO-8601) and new_next_action_details",
			"error_code": "validation_failed",
		})
	}

	now := time.Now().UTC()

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	receipt, err := ledger.New(database.GetDB()).CompleteAction(
		c.Request().Context(), tenantID, opportunityID, req.NewNextActionAt, req.NewNextActionDetails, now)
	if err != nil {
		return completeActionError(c, log, tenantID, opportunityID, err)
	}

	log.Info("Action completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("opportunity_id", opportunityID.String()),
		zap.Time("new_next_action_at", req.NewNextActionAt))

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Action completed and next action scheduled successfully",
		"opportunity_id": receipt.OpportunityID,
		"updated_at":     receipt.UpdatedAt,
	})
}

// completeActionError maps ledger errors onto the wire taxonomy
func completeActionError(c echo.Context, log *zap.Logger, tenantID, opportunityID uuid.UUID, err error) error {
	var validationErr *ledger.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Warn("Rejected complete-action input",
			zap.String("opportunity_id", opportunityID.String()),
			zap.String("field", validationErr.Field),
			zap.String("detail", validationErr.Detail))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"detail":     validationErr.Error(),
			"error_code": "validation_failed",
		})
	case errors.Is(err, ledger.ErrNotFound):
		log.Warn("Opportunity not found or access denied",
			zap.String("tenant_id", tenantID.String()),
			zap.String("opportunity_id", opportunityID.String()))
		return c.JSON(http.StatusNotFound, echo.Map{
			"detail":     "Opportunity not found",
			"error_code": "not_found",
		})
	case errors.Is(err, ledger.ErrInvalidTenant):
		prometheus.InvalidTenantCounter.Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{
			"detail":     "tenant identifier is required",
			"error_code": "invalid_tenant",
		})
	default:
		log.Error("Failed to complete action",
			zap.String("tenant_id", tenantID.String()),
			zap.String("opportunity_id", opportunityID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"detail":     "Failed to complete action",
			"error_code": "server_error",
		})
	}
}
