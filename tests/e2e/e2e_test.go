package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fixhub/internal/database"
	"fixhub/internal/domain"
	"fixhub/internal/middleware"
	"fixhub/internal/modules/assignment"
	"fixhub/internal/modules/auth"
	"fixhub/internal/modules/events"
	"fixhub/internal/modules/issue"
	"fixhub/internal/modules/notification"
	"fixhub/internal/modules/schedule"
	jwtsvc "fixhub/internal/pkg/jwt"
	"fixhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// workDate is a Monday so slots with day_of_week == 1 apply.
const workDate = "2026-09-07"

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
	users  *repository.UserRepository
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every transaction sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))

	userRepo := repository.NewUserRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	extRepo := repository.NewExtensionRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	proofRepo := repository.NewProofRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	j := jwtsvc.New("e2e-test-secret", time.Hour)
	hub := events.NewHub()

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	issueService := issue.NewService(issueRepo, bookingRepo, timelineRepo, nil)
	issueHandler := issue.NewHandler(issueService)

	scheduleService := schedule.NewService(slotRepo, bookingRepo)
	scheduleHandler := schedule.NewHandler(scheduleService)

	notifService := notification.NewService(notifRepo, userRepo, hub, nil)
	notifHandler := notification.NewHandler(notifService)

	assignmentService := assignment.NewService(
		db, bookingRepo, issueRepo, extRepo, timelineRepo, proofRepo,
		scheduleService, notifService, nil,
	)
	assignmentHandler := assignment.NewHandler(assignmentService)

	r := gin.New()

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			issueHandler.RegisterRoutes(protected)
			scheduleHandler.RegisterRoutes(protected)
			assignmentHandler.RegisterRoutes(protected)
			notifHandler.RegisterRoutes(protected)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalTokenAuth())
		{
			notifHandler.RegisterInternalRoutes(internal)
		}
	}

	return &E2ETestSuite{router: r, db: db, users: userRepo}
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *TestResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, &resp
}

// register creates a tenant or provider through the public API and returns
// the auth token.
func (s *E2ETestSuite) register(t *testing.T, email, role string) string {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
		"name":     "Test " + role,
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// seedStaff inserts a staff user directly, registration is tenant/provider
// only, then logs in through the API.
func (s *E2ETestSuite) seedStaff(t *testing.T, email string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, s.users.Create(t.Context(), &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleStaff,
		Name:         "Dispatcher",
		IsActive:     true,
	}))

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (s *E2ETestSuite) userID(t *testing.T, token string) int64 {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user, _ := resp.Data["user"].(map[string]interface{})
	require.NotNil(t, user)
	return int64(user["id"].(float64))
}

func (s *E2ETestSuite) createIssue(t *testing.T, token, title string) int64 {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/issues", token, gin.H{
		"title":    title,
		"category": "plumbing",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	iss, _ := resp.Data["issue"].(map[string]interface{})
	require.NotNil(t, iss)
	return int64(iss["id"].(float64))
}

func (s *E2ETestSuite) createSlot(t *testing.T, token string, dayOfWeek int, start, end string) int64 {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/slots", token, gin.H{
		"day_of_week": dayOfWeek,
		"start_time":  start,
		"end_time":    end,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	slot, _ := resp.Data["slot"].(map[string]interface{})
	require.NotNil(t, slot)
	return int64(slot["id"].(float64))
}

func (s *E2ETestSuite) assignExplicit(t *testing.T, staffToken string, issueID, providerID, slotID int64, start, end string) map[string]interface{} {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/assignments", staffToken, gin.H{
		"issue_id":    issueID,
		"provider_id": providerID,
		"slot_ids":    []int64{slotID},
		"date":        workDate,
		"start_time":  start,
		"end_time":    end,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookings, _ := resp.Data["bookings"].([]interface{})
	require.Len(t, bookings, 1)
	return bookings[0].(map[string]interface{})
}

func TestAuthFlow(t *testing.T) {
	s := setupTestSuite(t)

	token := s.register(t, "tenant@example.com", "tenant")

	// Duplicate email is rejected.
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "tenant@example.com",
		"password": "password123",
		"name":     "Second",
		"role":     "tenant",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMAIL_EXISTS", resp.Error.Code)

	// Staff/admin roles cannot self-register.
	w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "sneaky@example.com",
		"password": "password123",
		"name":     "Sneaky",
		"role":     "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Wrong password.
	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "tenant@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)

	// Valid token resolves the current user.
	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	user, _ := resp.Data["user"].(map[string]interface{})
	require.NotNil(t, user)
	assert.Equal(t, "tenant@example.com", user["email"])

	// No token at all.
	w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueFlow(t *testing.T) {
	s := setupTestSuite(t)
	tenantToken := s.register(t, "tenant@example.com", "tenant")
	strangerToken := s.register(t, "stranger@example.com", "tenant")
	staffToken := s.seedStaff(t, "staff@example.com")

	issueID := s.createIssue(t, tenantToken, "Broken kitchen faucet")

	// The owner sees the issue with its timeline.
	w, resp := s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/issues/%d", issueID), tenantToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	iss, _ := resp.Data["issue"].(map[string]interface{})
	require.NotNil(t, iss)
	assert.Equal(t, "open", iss["status"])
	timeline, _ := iss["timeline"].([]interface{})
	require.Len(t, timeline, 1)

	// Another tenant cannot see it; staff can.
	w, _ = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/issues/%d", issueID), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/issues/%d", issueID), staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Staff filter by status.
	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/issues?status=open", staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	issues, _ := resp.Data["issues"].([]interface{})
	assert.Len(t, issues, 1)

	// Open issues cancel directly.
	w, resp = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/issues/%d/cancel", issueID), tenantToken, gin.H{
		"reason": "fixed it myself",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	iss, _ = resp.Data["issue"].(map[string]interface{})
	require.NotNil(t, iss)
	assert.Equal(t, "cancelled", iss["status"])
}

func TestScheduleFlow(t *testing.T) {
	s := setupTestSuite(t)
	providerToken := s.register(t, "plumber@example.com", "provider")
	providerID := s.userID(t, providerToken)

	slotID := s.createSlot(t, providerToken, 1, "09:00", "13:00")

	// Inverted window is rejected.
	w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/slots", providerToken, gin.H{
		"day_of_week": 1,
		"start_time":  "13:00",
		"end_time":    "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Fresh slot is fully available.
	w, resp := s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/slots/%d/capacity?date=%s", slotID, workDate), providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	capacity, _ := resp.Data["capacity"].(map[string]interface{})
	require.NotNil(t, capacity)
	assert.EqualValues(t, 240, capacity["total_minutes"])
	assert.EqualValues(t, 240, capacity["available_minutes"])

	// Next-fit finds the start of the empty window.
	w, resp = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/slots/%d/next-fit?date=%s&minutes=60", slotID, workDate), providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	nextFit, _ := resp.Data["next_fit"].(map[string]interface{})
	require.NotNil(t, nextFit)
	assert.Equal(t, true, nextFit["found"])
	assert.Equal(t, "09:00", nextFit["start_time"])

	// Allocation preview spans days without writing anything.
	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/allocations/preview", providerToken, gin.H{
		"provider_id":    providerID,
		"start_date":     workDate,
		"needed_minutes": 300,
		"max_days":       14,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	alloc, _ := resp.Data["allocation"].(map[string]interface{})
	require.NotNil(t, alloc)
	assert.EqualValues(t, 240, alloc["fulfilled_minutes"])
	assert.EqualValues(t, 60, alloc["shortfall_minutes"])
}

func TestAssignmentLifecycle(t *testing.T) {
	s := setupTestSuite(t)
	tenantToken := s.register(t, "tenant@example.com", "tenant")
	providerToken := s.register(t, "plumber@example.com", "provider")
	staffToken := s.seedStaff(t, "staff@example.com")
	providerID := s.userID(t, providerToken)

	issueID := s.createIssue(t, tenantToken, "Radiator leak in 4B")
	slotID := s.createSlot(t, providerToken, 1, "09:00", "13:00")

	// Tenants cannot assign.
	w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/assignments", tenantToken, gin.H{
		"issue_id":    issueID,
		"provider_id": providerID,
		"slot_ids":    []int64{slotID},
		"date":        workDate,
		"start_time":  "09:00",
		"end_time":    "11:00",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A range outside the claimed slot's window is refused.
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/assignments", staffToken, gin.H{
		"issue_id":    issueID,
		"provider_id": providerID,
		"slot_ids":    []int64{slotID},
		"date":        workDate,
		"start_time":  "02:00",
		"end_time":    "03:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	booking := s.assignExplicit(t, staffToken, issueID, providerID, slotID, "09:00", "11:00")
	bookingID := int64(booking["id"].(float64))
	assert.Equal(t, "assigned", booking["status"])
	assert.Equal(t, "09:00", booking["start_time"])

	// Overlapping second assignment is refused.
	otherIssueID := s.createIssue(t, tenantToken, "Also check the bathroom")
	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/assignments", staffToken, gin.H{
		"issue_id":    otherIssueID,
		"provider_id": providerID,
		"slot_ids":    []int64{slotID},
		"date":        workDate,
		"start_time":  "10:00",
		"end_time":    "12:00",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CAPACITY_CONFLICT", resp.Error.Code)

	// Provider drives the work.
	path := func(action string) string {
		return fmt.Sprintf("/api/v1/bookings/%d/%s", bookingID, action)
	}

	w, resp = s.makeRequest(t, http.MethodPost, path("start"), providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b, _ := resp.Data["booking"].(map[string]interface{})
	require.NotNil(t, b)
	assert.Equal(t, "in_progress", b["status"])

	// Approving before finish is an invalid transition.
	w, resp = s.makeRequest(t, http.MethodPost, path("approve"), staffToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)

	w, _ = s.makeRequest(t, http.MethodPost, path("hold"), providerToken, gin.H{"reason": "waiting for parts"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.makeRequest(t, http.MethodPost, path("resume"), providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.makeRequest(t, http.MethodPost, path("finish"), providerToken, gin.H{
		"notes": "valve replaced",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b, _ = resp.Data["booking"].(map[string]interface{})
	require.NotNil(t, b)
	assert.Equal(t, "finished", b["status"])

	// Provider cannot approve own work.
	w, _ = s.makeRequest(t, http.MethodPost, path("approve"), providerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = s.makeRequest(t, http.MethodPost, path("approve"), staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	b, _ = resp.Data["booking"].(map[string]interface{})
	require.NotNil(t, b)
	assert.Equal(t, "completed", b["status"])

	// The issue mirrors the final state and carries the full audit trail.
	w, resp = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/issues/%d", issueID), tenantToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	iss, _ := resp.Data["issue"].(map[string]interface{})
	require.NotNil(t, iss)
	assert.Equal(t, "completed", iss["status"])

	w, resp = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/issues/%d/timeline", issueID), staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	timeline, _ := resp.Data["timeline"].([]interface{})
	// created, assigned, started, held, resumed, finished, approved
	assert.Len(t, timeline, 7)
}

func TestProofRequiredFinish(t *testing.T) {
	s := setupTestSuite(t)
	tenantToken := s.register(t, "tenant@example.com", "tenant")
	providerToken := s.register(t, "plumber@example.com", "provider")
	staffToken := s.seedStaff(t, "staff@example.com")
	providerID := s.userID(t, providerToken)

	issueID := s.createIssue(t, tenantToken, "Replace bathroom mixer")
	slotID := s.createSlot(t, providerToken, 1, "09:00", "13:00")

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/assignments", staffToken, gin.H{
		"issue_id":       issueID,
		"provider_id":    providerID,
		"slot_ids":       []int64{slotID},
		"date":           workDate,
		"start_time":     "09:00",
		"end_time":       "11:00",
		"proof_required": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookings, _ := resp.Data["bookings"].([]interface{})
	require.Len(t, bookings, 1)
	bookingID := int64(bookings[0].(map[string]interface{})["id"].(float64))

	w, _ = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/start", bookingID), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Finish without proofs bounces with 422.
	w, resp = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/finish", bookingID), providerToken, gin.H{
		"notes": "done",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PROOF_REQUIRED", resp.Error.Code)

	w, resp = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/finish", bookingID), providerToken, gin.H{
		"notes":      "done, photos attached",
		"proof_urls": []string{"https://cdn.fixhub.kz/proofs/mixer.jpg"},
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b, _ := resp.Data["booking"].(map[string]interface{})
	require.NotNil(t, b)
	assert.Equal(t, "finished", b["status"])
}

func TestExtensionFlow(t *testing.T) {
	s := setupTestSuite(t)
	tenantToken := s.register(t, "tenant@example.com", "tenant")
	providerToken := s.register(t, "plumber@example.com", "provider")
	staffToken := s.seedStaff(t, "staff@example.com")
	providerID := s.userID(t, providerToken)

	issueID := s.createIssue(t, tenantToken, "Full riser inspection")
	slotID := s.createSlot(t, providerToken, 1, "09:00", "13:00")
	booking := s.assignExplicit(t, staffToken, issueID, providerID, slotID, "09:00", "11:00")
	bookingID := int64(booking["id"].(float64))

	// Extensions only apply to running work.
	w, _ := s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/extensions", bookingID), providerToken, gin.H{
		"requested_minutes": 60,
		"reason":            "more corrosion than expected",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/start", bookingID), providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/extensions", bookingID), providerToken, gin.H{
		"requested_minutes": 60,
		"reason":            "more corrosion than expected",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ext, _ := resp.Data["extension"].(map[string]interface{})
	require.NotNil(t, ext)
	requestID := int64(ext["id"].(float64))
	assert.Equal(t, "pending", ext["status"])

	// Staff see it in the pending queue.
	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/extensions/pending", staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	pending, _ := resp.Data["extensions"].([]interface{})
	require.Len(t, pending, 1)

	// Rejection without a real explanation is refused.
	w, _ = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/extensions/%d/reject", requestID), staffToken, gin.H{
		"admin_notes": "no",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/extensions/%d/approve", requestID), staffToken, gin.H{
		"admin_notes": "approved, take the time you need",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ext, _ = resp.Data["extension"].(map[string]interface{})
	require.NotNil(t, ext)
	assert.Equal(t, "approved", ext["status"])

	// The booking window grew by the granted minutes.
	w, resp = s.makeRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	b, _ := resp.Data["booking"].(map[string]interface{})
	require.NotNil(t, b)
	assert.Equal(t, "12:00", b["end_time"])
	assert.EqualValues(t, 180, b["allocated_minutes"])

	// A resolved request cannot be resolved again.
	w, resp = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/extensions/%d/approve", requestID), staffToken, gin.H{
		"admin_notes": "double approve",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_RESOLVED", resp.Error.Code)
}

func TestNotifications(t *testing.T) {
	s := setupTestSuite(t)
	tenantToken := s.register(t, "tenant@example.com", "tenant")
	providerToken := s.register(t, "plumber@example.com", "provider")
	staffToken := s.seedStaff(t, "staff@example.com")
	providerID := s.userID(t, providerToken)

	issueID := s.createIssue(t, tenantToken, "Dripping ceiling")
	slotID := s.createSlot(t, providerToken, 1, "09:00", "13:00")
	s.assignExplicit(t, staffToken, issueID, providerID, slotID, "09:00", "11:00")

	// The provider was notified about the assignment.
	w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp.Data["unread"])

	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/notifications", providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	notifs, _ := resp.Data["notifications"].([]interface{})
	require.Len(t, notifs, 1)
	notifID := int64(notifs[0].(map[string]interface{})["id"].(float64))

	w, _ = s.makeRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/read", notifID), providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", providerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, resp.Data["unread"])
}

func TestInternalPruneEndpoint(t *testing.T) {
	s := setupTestSuite(t)
	t.Setenv("INTERNAL_API_TOKEN", "cron-secret")

	// User JWTs do not open internal routes.
	staffToken := s.seedStaff(t, "staff@example.com")
	w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/internal/notifications/prune", staffToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/internal/notifications/prune", "cron-secret", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
