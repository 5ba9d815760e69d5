package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/config"
	"github.com/javajoker/applied-api/internal/database/dbtest"
	"github.com/javajoker/applied-api/internal/i18n"
	"github.com/javajoker/applied-api/internal/middleware"
	"github.com/javajoker/applied-api/internal/models"
)

type applicationBody struct {
	ID             uint    `json:"id"`
	CompanyName    string  `json:"company_name"`
	RoleTitle      string  `json:"role_title"`
	Status         string  `json:"status"`
	AppliedAt      string  `json:"applied_at"`
	JobURL         *string `json:"job_url"`
	JobDescription *string `json:"job_description"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type eventBody struct {
	ID         uint    `json:"id"`
	EventType  string  `json:"event_type"`
	FromStatus *string `json:"from_status"`
	ToStatus   *string `json:"to_status"`
	Note       *string `json:"note"`
	OccurredAt string  `json:"occurred_at"`
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details []json.RawMessage `json:"details"`
	} `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	cancel context.CancelFunc
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("en"))
}

func (suite *RouterTestSuite) SetupTest() {
	suite.db = dbtest.New(suite.T())

	var ctx context.Context
	ctx, suite.cancel = context.WithCancel(context.Background())
	suite.router = Initialize(ctx, suite.db, testConfig())
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.cancel()
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxAge:         600,
		},
		I18n: config.I18nConfig{DefaultLocale: "en"},
	}
}

func (suite *RouterTestSuite) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonData, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(jsonData)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) createApplication(payload map[string]interface{}) applicationBody {
	w := suite.do(http.MethodPost, "/applications", payload)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var app applicationBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &app))
	return app
}

func (suite *RouterTestSuite) listEvents(id uint) ([]eventBody, *httptest.ResponseRecorder) {
	w := suite.do(http.MethodGet, fmt.Sprintf("/applications/%d/events", id), nil)
	var events []eventBody
	if w.Code == http.StatusOK {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &events))
	}
	return events, w
}

func (suite *RouterTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"status":"ok"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"status":"ok","database":"up"}`, w.Body.String())
}

func (suite *RouterTestSuite) TestCreateApplication() {
	app := suite.createApplication(map[string]interface{}{
		"company_name": "Acme",
		"role_title":   "Engineer",
		"status":       "applied",
		"applied_at":   "2026-01-20",
		"job_url":      "",
	})

	assert.NotZero(suite.T(), app.ID)
	assert.Equal(suite.T(), "Acme", app.CompanyName)
	assert.Equal(suite.T(), "applied", app.Status)
	assert.Equal(suite.T(), "2026-01-20", app.AppliedAt)
	assert.Nil(suite.T(), app.JobURL)

	events, w := suite.listEvents(app.ID)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.Len(suite.T(), events, 1)
	assert.Equal(suite.T(), "created", events[0].EventType)
	assert.Nil(suite.T(), events[0].FromStatus)
	assert.Equal(suite.T(), "applied", *events[0].ToStatus)
	assert.Equal(suite.T(), "applied", w.Header().Get("X-Replayed-Status"))
}

func (suite *RouterTestSuite) TestCreateApplicationValidationFailure() {
	w := suite.do(http.MethodPost, "/applications", map[string]interface{}{
		"company_name": "",
		"role_title":   "Engineer",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	var resp errorBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(suite.T(), resp.Success)
	assert.Equal(suite.T(), "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(suite.T(), w.Body.String(), `"field":"company_name"`)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Application{}).Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *RouterTestSuite) TestCreateApplicationMalformedBody() {
	w := suite.do(http.MethodPost, "/applications", `{"company_name":`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "BAD_REQUEST")
}

func (suite *RouterTestSuite) TestGetApplication() {
	app := suite.createApplication(map[string]interface{}{"company_name": "Acme", "role_title": "Engineer"})

	w := suite.do(http.MethodGet, fmt.Sprintf("/applications/%d", app.ID), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var got applicationBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(suite.T(), app.ID, got.ID)
	assert.Equal(suite.T(), "applied", got.Status)
}

func (suite *RouterTestSuite) TestUnknownApplicationIsNotFound() {
	for _, tc := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/applications/999", nil},
		{http.MethodPatch, "/applications/999", map[string]string{"role_title": "x"}},
		{http.MethodPost, "/applications/999/status", map[string]string{"to_status": "offer"}},
		{http.MethodGet, "/applications/999/events", nil},
		{http.MethodDelete, "/applications/999", nil},
	} {
		w := suite.do(tc.method, tc.path, tc.body)
		assert.Equal(suite.T(), http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.Contains(suite.T(), w.Body.String(), "Application not found")
	}

	var count int64
	suite.Require().NoError(suite.db.Model(&models.ApplicationEvent{}).Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *RouterTestSuite) TestInvalidIDIsBadRequest() {
	w := suite.do(http.MethodGet, "/applications/abc", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/applications/0", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestChangeStatus() {
	app := suite.createApplication(map[string]interface{}{"company_name": "Acme", "role_title": "Engineer", "status": "applied"})

	w := suite.do(http.MethodPost, fmt.Sprintf("/applications/%d/status", app.ID), map[string]string{
		"to_status": "interviewing",
		"note":      "phone screen",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var updated applicationBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(suite.T(), "interviewing", updated.Status)

	events, _ := suite.listEvents(app.ID)
	require.Len(suite.T(), events, 2)
	assert.Equal(suite.T(), "status_change", events[1].EventType)
	assert.Equal(suite.T(), "applied", *events[1].FromStatus)
	assert.Equal(suite.T(), "interviewing", *events[1].ToStatus)
	assert.Equal(suite.T(), "phone screen", *events[1].Note)
}

func (suite *RouterTestSuite) TestChangeStatusValidationFailure() {
	app := suite.createApplication(map[string]interface{}{"company_name": "Acme", "role_title": "Engineer"})

	w := suite.do(http.MethodPost, fmt.Sprintf("/applications/%d/status", app.ID), map[string]string{"to_status": ""})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	events, _ := suite.listEvents(app.ID)
	assert.Len(suite.T(), events, 1)
}

func (suite *RouterTestSuite) TestThreeTransitionsYieldFourEvents() {
	app := suite.createApplication(map[string]interface{}{"company_name": "Acme", "role_title": "Engineer"})

	for _, status := range []string{"phone_screen", "onsite", "offer"} {
		w := suite.do(http.MethodPost, fmt.Sprintf("/applications/%d/status", app.ID), map[string]string{"to_status": status})
		require.Equal(suite.T(), http.StatusOK, w.Code)
	}

	events, w := suite.listEvents(app.ID)
	require.Len(suite.T(), events, 4)
	assert.Equal(suite.T(), "created", events[0].EventType)
	assert.Equal(suite.T(), "offer", *events[3].ToStatus)
	assert.Equal(suite.T(), "offer", w.Header().Get("X-Replayed-Status"))
	for i := 1; i < len(events); i++ {
		assert.Less(suite.T(), events[i-1].ID, events[i].ID)
	}
}

func (suite *RouterTestSuite) TestPatchApplication() {
	app := suite.createApplication(map[string]interface{}{
		"company_name": "Acme",
		"role_title":   "Engineer",
		"job_url":      "https://acme.example/1",
	})

	w := suite.do(http.MethodPatch, fmt.Sprintf("/applications/%d", app.ID), map[string]string{
		"role_title":      "Senior Engineer",
		"job_url":         "   ",
		"job_description": "Platform team",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var updated applicationBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(suite.T(), "Acme", updated.CompanyName)
	assert.Equal(suite.T(), "Senior Engineer", updated.RoleTitle)
	assert.Nil(suite.T(), updated.JobURL)
	require.NotNil(suite.T(), updated.JobDescription)
	assert.Equal(suite.T(), "Platform team", *updated.JobDescription)

	events, _ := suite.listEvents(app.ID)
	assert.Len(suite.T(), events, 1)

	w = suite.do(http.MethodPatch, fmt.Sprintf("/applications/%d", app.ID), map[string]string{
		"status": "offer",
		"note":   "verbal offer",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	events, _ = suite.listEvents(app.ID)
	require.Len(suite.T(), events, 2)
	assert.Equal(suite.T(), "offer", *events[1].ToStatus)

	w = suite.do(http.MethodPatch, fmt.Sprintf("/applications/%d", app.ID), map[string]string{"company_name": ""})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *RouterTestSuite) TestListApplicationsMostRecentlyUpdatedFirst() {
	w := suite.do(http.MethodGet, "/applications", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `[]`, w.Body.String())

	first := suite.createApplication(map[string]interface{}{"company_name": "First", "role_title": "Engineer"})
	second := suite.createApplication(map[string]interface{}{"company_name": "Second", "role_title": "Engineer"})

	w = suite.do(http.MethodPost, fmt.Sprintf("/applications/%d/status", first.ID), map[string]string{"to_status": "onsite"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/applications", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var apps []applicationBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apps))
	require.Len(suite.T(), apps, 2)
	assert.Equal(suite.T(), first.ID, apps[0].ID)
	assert.Equal(suite.T(), second.ID, apps[1].ID)
}

func (suite *RouterTestSuite) TestListApplicationsPaginated() {
	for i := 0; i < 5; i++ {
		suite.createApplication(map[string]interface{}{"company_name": fmt.Sprintf("Company %d", i), "role_title": "Engineer"})
	}

	w := suite.do(http.MethodGet, "/applications?page=2&limit=2", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "5", w.Header().Get("X-Total-Count"))
	assert.Equal(suite.T(), "2", w.Header().Get("X-Page"))
	assert.Equal(suite.T(), "3", w.Header().Get("X-Total-Pages"))

	var apps []applicationBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &apps))
	require.Len(suite.T(), apps, 2)
	assert.Equal(suite.T(), "Company 2", apps[0].CompanyName)
	assert.Equal(suite.T(), "Company 1", apps[1].CompanyName)

	w = suite.do(http.MethodGet, "/applications", nil)
	assert.Empty(suite.T(), w.Header().Get("X-Total-Count"))
}

func (suite *RouterTestSuite) TestDeleteApplication() {
	app := suite.createApplication(map[string]interface{}{"company_name": "Acme", "role_title": "Engineer"})

	w := suite.do(http.MethodDelete, fmt.Sprintf("/applications/%d", app.ID), nil)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	_, w = suite.listEvents(app.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestLocalizedErrorMessage() {
	w := suite.do(http.MethodGet, "/applications/999", nil, "Accept-Language", "zh-TW,zh;q=0.9")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "找不到此求職申請")
}

func (suite *RouterTestSuite) TestRequestIDAndCORSHeaders() {
	w := suite.do(http.MethodGet, "/applications", nil, "Origin", "http://localhost:5173")
	assert.Equal(suite.T(), "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(suite.T(), w.Header().Get(middleware.RequestIDHeader))

	w = suite.do(http.MethodOptions, "/applications", nil,
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "PATCH",
	)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
	assert.Contains(suite.T(), w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
