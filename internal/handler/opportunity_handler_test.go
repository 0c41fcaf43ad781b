package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"opportunity-service/internal/middleware"
	"opportunity-service/internal/model"
	"opportunity-service/internal/seed"
	"opportunity-service/pkg/config"
	"opportunity-service/pkg/database"
	"opportunity-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "opportunity_handler_test"},
	})
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.Opportunity{}))
	database.DB = db

	e := echo.New()
	api := e.Group("/api")
	api.Use(middleware.TenantMiddleware)
	api.GET("/opportunities/due", ListDueActions)
	api.POST("/opportunities/:id/complete_action", CompleteAction)
	api.POST("/demo/reset", ResetDemoData)
	return e
}

func doRequest(e *echo.Echo, method, path, tenantID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tenantID != "" {
		req.Header.Set(middleware.TenantHeader, tenantID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createOpportunity(t *testing.T, tenantID uuid.UUID, name string, nextActionAt *time.Time, value *int64) model.Opportunity {
	t.Helper()
	details := "Existing next action"
	opp := model.Opportunity{
		TenantID:          tenantID,
		Name:              name,
		Value:             value,
		Stage:             "Discovery",
		NextActionAt:      nextActionAt,
		NextActionDetails: &details,
		LastActivityAt:    time.Now().UTC().Add(-24 * time.Hour),
	}
	require.NoError(t, database.GetDB().Create(&opp).Error)
	return opp
}

func createTenant(t *testing.T, name string) uuid.UUID {
	t.Helper()
	tenant := model.Tenant{Name: name}
	require.NoError(t, database.GetDB().Create(&tenant).Error)
	return tenant.ID
}

func timeRef(t time.Time) *time.Time { return &t }

func int64Ref(v int64) *int64 { return &v }

func TestListDueActions_RequiresTenantHeader(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/api/opportunities/due", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_tenant", body["error_code"])
}

func TestListDueActions_RejectsMalformedTenantHeader(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/api/opportunities/due", "not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_tenant", body["error_code"])
}

func TestListDueActions_EmptyArrayWhenNothingDue(t *testing.T) {
	e := newTestServer(t)
	tenantID := createTenant(t, "Quiet Tenant")

	rec := doRequest(e, http.MethodGet, "/api/opportunities/due", tenantID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListDueActions_WireShape(t *testing.T) {
	e := newTestServer(t)
	now := time.Now().UTC()

	tenantID := createTenant(t, "Demo Company")
	otherID := createTenant(t, "Test Organization")

	overdue := createOpportunity(t, tenantID, "Overdue Deal", timeRef(now.AddDate(0, 0, -3)), int64Ref(25000))
	noValue := createOpportunity(t, tenantID, "No Value Deal", timeRef(now.AddDate(0, 0, -1)), nil)
	createOpportunity(t, tenantID, "Future Deal", timeRef(now.AddDate(0, 0, 3)), int64Ref(1000))
	createOpportunity(t, otherID, "Foreign Deal", timeRef(now.AddDate(0, 0, -2)), int64Ref(9000))

	rec := doRequest(e, http.MethodGet, "/api/opportunities/due", tenantID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)

	// Ascending by next_action_at: most overdue first
	assert.Equal(t, overdue.ID.String(), body[0]["id"])
	assert.Equal(t, "Overdue Deal", body[0]["name"])
	assert.Equal(t, float64(25000), body[0]["value"])
	assert.Equal(t, "Discovery", body[0]["stage"])
	assert.NotEmpty(t, body[0]["next_action_at"])
	assert.Equal(t, "Existing next action", body[0]["next_action_details"])

	// Optional value is serialized as an explicit null
	assert.Equal(t, noValue.ID.String(), body[1]["id"])
	valueField, present := body[1]["value"]
	assert.True(t, present)
	assert.Nil(t, valueField)
}

func TestCompleteAction_Success(t *testing.T) {
	e := newTestServer(t)
	now := time.Now().UTC()

	tenantID := createTenant(t, "Demo Company")
	opp := createOpportunity(t, tenantID, "Renewal", timeRef(now.AddDate(0, 0, -1)), int64Ref(15000))

	payload := fmt.Sprintf(`{"new_next_action_at": %q, "new_next_action_details": "Send renewal contract"}`,
		now.AddDate(0, 0, 7).Format(time.RFC3339))
	rec := doRequest(e, http.MethodPost, "/api/opportunities/"+opp.ID.String()+"/complete_action", tenantID.String(), payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, opp.ID.String(), body["opportunity_id"])
	assert.NotEmpty(t, body["message"])
	assert.NotEmpty(t, body["updated_at"])

	var updated model.Opportunity
	require.NoError(t, database.GetDB().First(&updated, "id = ?", opp.ID).Error)
	require.NotNil(t, updated.NextActionDetails)
	assert.Equal(t, "Send renewal contract", *updated.NextActionDetails)
	assert.WithinDuration(t, now, updated.LastActivityAt, 5*time.Second)
}

func TestCompleteAction_PastDateFailsValidation(t *testing.T) {
	e := newTestServer(t)
	now := time.Now().UTC()

	tenantID := createTenant(t, "Demo Company")
	opp := createOpportunity(t, tenantID, "Renewal", timeRef(now.AddDate(0, 0, -1)), nil)

	payload := fmt.Sprintf(`{"new_next_action_at": %q, "new_next_action_details": "Send renewal contract"}`,
		now.AddDate(0, 0, -2).Format(time.RFC3339))
	rec := doRequest(e, http.MethodPost, "/api/opportunities/"+opp.ID.String()+"/complete_action", tenantID.String(), payload)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body["error_code"])
	assert.Contains(t, body["detail"], "new_next_action_at")
}

func TestCompleteAction_ShortDetailsFailsValidation(t *testing.T) {
	e := newTestServer(t)
	now := time.Now().UTC()

	tenantID := createTenant(t, "Demo Company")
	opp := createOpportunity(t, tenantID, "Renewal", timeRef(now.AddDate(0, 0, -1)), nil)

	payload := fmt.Sprintf(`{"new_next_action_at": %q, "new_next_action_details": "  hi  "}`,
		now.AddDate(0, 0, 1).Format(time.RFC3339))
	rec := doRequest(e, http.MethodPost, "/api/opportunities/"+opp.ID.String()+"/complete_action", tenantID.String(), payload)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body["error_code"])
	assert.Contains(t, body["detail"], "new_next_action_details")
}

func TestCompleteAction_CrossTenantIsNotFound(t *testing.T) {
	e := newTestServer(t)
	now := time.Now().UTC()

	ownerID := createTenant(t, "Demo Company")
	callerID := createTenant(t, "Test Organization")
	foreign := createOpportunity(t, ownerID, "Foreign Deal", timeRef(now.AddDate(0, 0, -1)), nil)

	payload := fmt.Sprintf(`{"new_next_action_at": %q, "new_next_action_details": "Should not apply"}`,
		now.AddDate(0, 0, 1).Format(time.RFC3339))
	rec := doRequest(e, http.MethodPost, "/api/opportunities/"+foreign.ID.String()+"/complete_action", callerID.String(), payload)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error_code"])

	// Foreign row is unchanged
	var after model.Opportunity
	require.NoError(t, database.GetDB().First(&after, "id = ?", foreign.ID).Error)
	require.NotNil(t, after.NextActionDetails)
	assert.Equal(t, "Existing next action", *after.NextActionDetails)
}

func TestCompleteAction_MalformedIDIsNotFound(t *testing.T) {
	e := newTestServer(t)
	now := time.Now().UTC()

	tenantID := createTenant(t, "Demo Company")

	payload := fmt.Sprintf(`{"new_next_action_at": %q, "new_next_action_details": "Send revised pricing"}`,
		now.AddDate(0, 0, 1).Format(time.RFC3339))
	rec := doRequest(e, http.MethodPost, "/api/opportunities/not-a-uuid/complete_action", tenantID.String(), payload)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetDemoData(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodPost, "/api/demo/reset", seed.DemoTenantID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["tenants"])
	assert.Equal(t, float64(7), body["opportunities"])

	// The dashboard shows the demo tenant's due actions, not the future
	// one and not the second tenant's row
	list := doRequest(e, http.MethodGet, "/api/opportunities/due", seed.DemoTenantID.String(), "")
	require.Equal(t, http.StatusOK, list.Code)

	var actions []map[string]interface{}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &actions))
	assert.Len(t, actions, 5)

	// Reset is repeatable
	rec = doRequest(e, http.MethodPost, "/api/demo/reset", seed.DemoTenantID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
