package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Opportunity represents a sales deal tracked through a pipeline stage,
// with a next scheduled follow-up action. Every opportunity belongs to
// exactly one tenant for its entire lifetime.
//
// NextActionAt and NextActionDetails are both set by every completed
// action; the schema permits either to be independently null only for
// rows that predate any completion. LastActivityAt is never null and is
// monotonically non-decreasing.
type Opportunity struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index:idx_tenant_next_action,priority:1"`
	Name              string     `json:"name" gorm:"type:varchar(255);not null"`
	Value             *int64     `json:"value"`
	Stage             string     `json:"stage" gorm:"type:varchar(100);not null"`
	NextActionAt      *time.Time `json:"next_action_at" gorm:"index:idx_tenant_next_action,priority:2"`
	NextActionDetails *string    `json:"next_action_details" gorm:"type:varchar(1000)"`
	LastActivityAt    time.Time  `json:"last_activity_at" gorm:"not null"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Tenant            Tenant     `json:"-" gorm:"foreignKey:TenantID"`
}

// BeforeCreate assigns an ID and defaults LastActivityAt to the creation
// time when they were not supplied
func (o *Opportunity) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.LastActivityAt.IsZero() {
		o.LastActivityAt = time.Now().UTC()
	}
	return nil
}
