package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"opportunity-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// minDetailsLength is the minimum length of next-action details after
// trimming surrounding whitespace.
const minDetailsLength = 5

// Ledger owns the Tenant and Opportunity entities and exposes the two
// operations of the dashboard: listing due actions and completing an
// action while scheduling the next one. The current time is always an
// explicit argument so behavior stays deterministic under test.
type Ledger struct {
	db *gorm.DB
}

// New creates a ledger backed by the given database
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// DueAction is the projection of an opportunity whose next action is due
// or overdue
type DueAction struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Value             *int64    `json:"value"`
	Stage             string    `json:"stage"`
	NextActionAt      time.Time `json:"next_action_at"`
	NextActionDetails *string   `json:"next_action_details"`
}

// CompletionReceipt confirms a completed action
type CompletionReceipt struct {
	OpportunityID uuid.UUID
	UpdatedAt     time.Time
}

// ListDueActions returns all opportunities of the tenant whose next action
// is due at or before now, ordered ascending by next_action_at so the most
// overdue item comes first. That ordering is the dashboard's prioritization
// contract. The comparison uses full timestamps, not day boundaries.
func (l *Ledger) ListDueActions(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]DueAction, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenant
	}

	var opportunities []model.Opportunity
	result := l.db.WithContext(ctx).
		Where("tenant_id = ? AND next_action_at IS NOT NULL AND next_action_at <= ?", tenantID, now).
		Order("next_action_at ASC").
		Find(&opportunities)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, result.Error)
	}

	actions := make([]DueAction, 0, len(opportunities))
	for _, o := range opportunities {
		actions = append(actions, DueAction{
			ID:                o.ID,
			Name:              o.Name,
			Value:             o.Value,
			Stage:             o.Stage,
			NextActionAt:      *o.NextActionAt,
			NextActionDetails: o.NextActionDetails,
		})
	}
	return actions, nil
}

// CompleteAction marks the current action of an opportunity as done and
// schedules the next one. It atomically sets next_action_at,
// next_action_details, last_activity_at and updated_at on the single row
// matching both opportunityID and tenantID; a row owned by another tenant
// is reported as ErrNotFound. The new due date must not be before today at
// day granularity (today is acceptable), and the details must be at least
// five characters after trimming.
func (l *Ledger) CompleteAction(ctx context.Context, tenantID, opportunityID uuid.UUID, newNextActionAt time.Time, newNextActionDetails string, now time.Time) (*CompletionReceipt, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenant
	}

	details := strings.TrimSpace(newNextActionDetails)
	if details == "" {
		return nil, &ValidationError{Field: "new_next_action_details", Detail: "is required"}
	}
	if utf8.RuneCountInString(details) < minDetailsLength {
		return nil, &ValidationError{
			Field:  "new_next_action_details",
			Detail: fmt.Sprintf("must be at least %d characters", minDetailsLength),
		}
	}
	if newNextActionAt.IsZero() {
		return nil, &ValidationError{Field: "new_next_action_at", Detail: "is required"}
	}
	if startOfDay(newNextActionAt).Before(startOfDay(now)) {
		return nil, &ValidationError{Field: "new_next_action_at", Detail: "must not be in the past"}
	}

	result := l.db.WithContext(ctx).
		Model(&model.Opportunity{}).
		Where("id = ? AND tenant_id = ?", opportunityID, tenantID).
		Updates(map[string]interface{}{
			"next_action_at":      newNextActionAt,
			"next_action_details": details,
			"last_activity_at":    now,
			"updated_at":          now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return &CompletionReceipt{OpportunityID: opportunityID, UpdatedAt: now}, nil
}

// startOfDay truncates a timestamp to local midnight
func startOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
