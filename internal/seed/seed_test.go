package seed

import (
	"testing"
	"time"

	"opportunity-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.Opportunity{}))
	return db
}

func TestReset_SeedsDemoData(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	result, err := Reset(db, now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Tenants)
	assert.Equal(t, 7, result.Opportunities)

	var tenantCount, oppCount int64
	require.NoError(t, db.Model(&model.Tenant{}).Count(&tenantCount).Error)
	require.NoError(t, db.Model(&model.Opportunity{}).Count(&oppCount).Error)
	assert.EqualValues(t, 2, tenantCount)
	assert.EqualValues(t, 7, oppCount)

	// Demo tenant gets six opportunities, five of them due at or before now
	var demoCount, dueCount int64
	require.NoError(t, db.Model(&model.Opportunity{}).
		Where("tenant_id = ?", DemoTenantID).
		Count(&demoCount).Error)
	require.NoError(t, db.Model(&model.Opportunity{}).
		Where("tenant_id = ? AND next_action_at IS NOT NULL AND next_action_at <= ?", DemoTenantID, now).
		Count(&dueCount).Error)
	assert.EqualValues(t, 6, demoCount)
	assert.EqualValues(t, 5, dueCount)
}

func TestReset_IsRepeatable(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	_, err := Reset(db, now)
	require.NoError(t, err)
	_, err = Reset(db, now.Add(time.Hour))
	require.NoError(t, err)

	var oppCount int64
	require.NoError(t, db.Model(&model.Opportunity{}).Count(&oppCount).Error)
	assert.EqualValues(t, 7, oppCount)
}

func TestReset_LastActivityNeverNull(t *testing.T) {
	db := newTestDB(t)

	_, err := Reset(db, time.Now().UTC())
	require.NoError(t, err)

	var opportunities []model.Opportunity
	require.NoError(t, db.Find(&opportunities).Error)
	for _, o := range opportunities {
		assert.False(t, o.LastActivityAt.IsZero(), "opportunity %s has no last activity", o.Name)
	}
}
