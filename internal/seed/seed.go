package seed

import (
	"fmt"
	"time"

	"opportunity-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fixed tenant IDs so demos and tests address a known tenant
var (
	DemoTenantID   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	SecondTenantID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
)

// Result reports what a reset created
type Result struct {
	Tenants       int
	Opportunities int
}

// Reset clears both tables and recreates the demo data inside one
// transaction, so a failed reset leaves the previous state intact. Meant
// for repeatable demonstrations only; the route is gated by configuration.
func Reset(db *gorm.DB, now time.Time) (*Result, error) {
	tenants := demoTenants()
	opportunities := demoOpportunities(now)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Opportunities reference tenants, so they go first
	if err := tx.Where("1 = 1").Delete(&model.Opportunity{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear opportunities: %w", err)
	}
	if err := tx.Where("1 = 1").Delete(&model.Tenant{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear tenants: %w", err)
	}

	if err := tx.Create(&tenants).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to seed tenants: %w", err)
	}
	if err := tx.Create(&opportunities).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to seed opportunities: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &Result{Tenants: len(tenants), Opportunities: len(opportunities)}, nil
}

func demoTenants() []model.Tenant {
	return []model.Tenant{
		{ID: DemoTenantID, Name: "Demo Company"},
		{ID: SecondTenantID, Name: "Test Organization"},
	}
}

// demoOpportunities builds fixtures spanning every urgency tier, one
// future action that must not appear on the dashboard, and one row owned
// by the second tenant to exercise isolation.
func demoOpportunities(now time.Time) []model.Opportunity {
	return []model.Opportunity{
		{
			TenantID:          DemoTenantID,
			Name:              "Enterprise Deal - Acme Corp",
			Value:             int64Ptr(50000),
			Stage:             "Proposal",
			NextActionAt:      timePtr(now.AddDate(0, 0, -7)),
			NextActionDetails: strPtr("Follow up on proposal feedback"),
			LastActivityAt:    now.AddDate(0, 0, -8),
		},
		{
			TenantID:          DemoTenantID,
			Name:              "Mid-Market - TechStart Inc",
			Value:             int64Ptr(25000),
			Stage:             "Negotiation",
			NextActionAt:      timePtr(now.AddDate(0, 0, -2)),
			NextActionDetails: strPtr("Send revised pricing"),
			LastActivityAt:    now.AddDate(0, 0, -3),
		},
		{
			TenantID:          DemoTenantID,
			Name:              "SMB Deal - Local Business",
			Value:             int64Ptr(5000),
			Stage:             "Discovery",
			NextActionAt:      timePtr(now),
			NextActionDetails: strPtr("Schedule demo call"),
			LastActivityAt:    now.Add(-6 * time.Hour),
		},
		{
			TenantID:          DemoTenantID,
			Name:              "Renewal - Existing Customer",
			Value:             int64Ptr(15000),
			Stage:             "Closed Won",
			NextActionAt:      timePtr(now.AddDate(0, 0, -1)),
			NextActionDetails: strPtr("Send renewal contract"),
			LastActivityAt:    now.AddDate(0, 0, -2),
		},
		{
			TenantID:          DemoTenantID,
			Name:              "Future Opportunity",
			Value:             int64Ptr(30000),
			Stage:             "Qualification",
			NextActionAt:      timePtr(now.AddDate(0, 0, 3)),
			NextActionDetails: strPtr("Initial discovery call"),
			LastActivityAt:    now.Add(-2 * time.Hour),
		},
		{
			TenantID:          DemoTenantID,
			Name:              "Healthcare Solutions Inc",
			Value:             int64Ptr(120000),
			Stage:             "Negotiation",
			NextActionAt:      timePtr(now.AddDate(0, 0, -5)),
			NextActionDetails: strPtr("Review contract terms and prepare counter-proposal"),
			LastActivityAt:    now.AddDate(0, 0, -6),
		},
		{
			TenantID:          SecondTenantID,
			Name:              "Different Tenant Deal",
			Value:             int64Ptr(40000),
			Stage:             "Discovery",
			NextActionAt:      timePtr(now.Add(-2 * time.Hour)),
			NextActionDetails: strPtr("This should not appear for Demo Company tenant"),
			LastActivityAt:    now.Add(-3 * time.Hour),
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
