package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/migrations"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/mail"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/access"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/catalog"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}

type testEnv struct {
	router  http.Handler
	iam     *iam.Service
	catalog *catalog.Service
	access  *access.Service
	mailer  *mail.ConsoleMailer
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	cfg := &config.Config{
		SecretKey:     "test-secret",
		ServerURL:     "http://localhost:8080",
		SessionTTL:    time.Hour,
		ResetTokenTTL: time.Hour,
		Mail:          config.MailConfig{FromEmail: "noreply@example.com", FromName: "Academy"},
	}

	users := repository.NewBunUserRepository(db)
	iamSvc, err := iam.NewService(iam.Deps{
		Users:    users,
		Roles:    repository.NewBunUserRoleRepository(db),
		Sessions: repository.NewBunSessionRepository(db),
	}, cfg.SessionTTL)
	require.NoError(t, err)

	courses := repository.NewBunCourseRepository(db)
	catalogSvc := catalog.NewService(courses, repository.NewBunProgressRepository(db))

	mailer := mail.NewConsoleMailer(cfg.Mail.FromName, cfg.Mail.FromEmail)
	mailer.Quiet = true
	accessSvc := access.NewService(access.Deps{
		Enrollments: repository.NewBunEnrollmentRepository(db),
		Requests:    repository.NewBunAccessRequestRepository(db),
		Users:       users,
		Courses:     courses,
		Mailer:      mailer,
	})

	enforcer, err := auth.InitEnforcer()
	require.NoError(t, err)

	router := NewRouter(RouterOptions{
		Cfg:      cfg,
		IAM:      iamSvc,
		Catalog:  catalogSvc,
		Access:   accessSvc,
		Users:    users,
		Enforcer: enforcer,
		Mailer:   mailer,
	})

	return &testEnv{router: router, iam: iamSvc, catalog: catalogSvc, access: accessSvc, mailer: mailer, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its token.
func (e *testEnv) register(t *testing.T, email string) (userResponse, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     email,
		"full_name": "Test User",
		"password":  "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string       `json:"token"`
		User  userResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.User, resp.Token
}

// admin creates an admin account directly through the service layer.
func (e *testEnv) admin(t *testing.T) (userResponse, string) {
	t.Helper()
	user, token := e.register(t, fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()))
	require.NoError(t, e.iam.AssignRole(context.Background(), user.ID, models.RoleAdmin, user.ID))
	return user, token
}

func (e *testEnv) importCourse(t *testing.T, adminToken string) courseResponse {
	t.Helper()
	manifest := `{
	  "slug": "go-basics",
	  "title": "Go Basics",
	  "published": true,
	  "modules": [
	    {"title": "Intro", "lessons": [
	      {"title": "Hello", "video_url_hls": "courses/go-basics/01/master.m3u8", "duration_seconds": 300}
	    ]}
	  ]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/courses/import", bytes.NewReader([]byte(manifest)))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var course courseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))
	return course
}

func TestRegisterLoginWhoami(t *testing.T) {
	env := newTestEnv(t)

	user, token := env.register(t, "ana@example.com")
	assert.Equal(t, "ana@example.com", user.Email)
	assert.False(t, user.IsAdmin)

	rec := env.do(t, http.MethodGet, "/api/auth/whoami", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var whoami userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &whoami))
	assert.Equal(t, user.ID, whoami.ID)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/whoami", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "ana@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/whoami", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCourseAccessFlow(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.admin(t)
	course := env.importCourse(t, adminToken)
	student, studentToken := env.register(t, "student@example.com")

	// Catalog is visible, but the course carries no playback URLs yet.
	rec := env.do(t, http.MethodGet, "/api/courses/go-basics", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var gated courseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gated))
	assert.False(t, gated.Enrolled)
	require.Len(t, gated.Modules, 1)
	assert.Empty(t, gated.Modules[0].Lessons[0].VideoURL)

	// Student files a request; admin approves it.
	rec = env.do(t, http.MethodPost, "/api/courses/"+course.ID+"/request-access", studentToken, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var request struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &request))

	rec = env.do(t, http.MethodPost, "/api/admin/requests/"+request.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Playback URLs now appear (no bucket configured: raw references).
	rec = env.do(t, http.MethodGet, "/api/courses/go-basics", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var open courseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &open))
	assert.True(t, open.Enrolled)
	assert.Equal(t, "courses/go-basics/01/master.m3u8", open.Modules[0].Lessons[0].VideoURL)

	// Revoking the grant gates the course again.
	rec = env.do(t, http.MethodDelete, "/api/admin/courses/"+course.ID+"/grants/"+student.ID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/courses/go-basics", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var regated courseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regated))
	assert.False(t, regated.Enrolled)
}

func TestExpiredPlatformAccessBlocksCatalog(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.register(t, "expired@example.com")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, env.iam.SetAccessExpiry(context.Background(), user.ID, &past))

	rec := env.do(t, http.MethodGet, "/api/courses", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins are exempt from platform expiry.
	admin, adminToken := env.admin(t)
	require.NoError(t, env.iam.SetAccessExpiry(context.Background(), admin.ID, &past))
	rec = env.do(t, http.MethodGet, "/api/courses", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProgressRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.admin(t)
	env.importCourse(t, adminToken)
	_, studentToken := env.register(t, "student@example.com")

	rec := env.do(t, http.MethodGet, "/api/courses/go-basics", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var course courseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &course))
	lessonID := course.Modules[0].Lessons[0].ID

	rec = env.do(t, http.MethodPut, "/api/progress/"+lessonID, studentToken, map[string]any{
		"position":  120,
		"completed": true,
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/courses", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []courseListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Progress)
	assert.Equal(t, 100, items[0].Progress.PercentComplete)
}

func TestAdminRoutesForbiddenForStudents(t *testing.T) {
	env := newTestEnv(t)
	_, studentToken := env.register(t, "student@example.com")

	rec := env.do(t, http.MethodGet, "/api/admin/users", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRosterAndGrant(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.admin(t)
	course := env.importCourse(t, adminToken)
	student, _ := env.register(t, "student@example.com")

	rec := env.do(t, http.MethodPost, "/api/admin/courses/"+course.ID+"/grants", adminToken, map[string]any{
		"user_id": student.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/admin/courses/"+course.ID+"/roster", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roster struct {
		Enrollments     []enrollmentResponse    `json:"enrollments"`
		PendingRequests []accessRequestResponse `json:"pending_requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster.Enrollments, 1)
	assert.Equal(t, student.ID, roster.Enrollments[0].UserID)
	assert.Empty(t, roster.PendingRequests)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ana@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]any{
		"email": "ana@example.com",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Unknown addresses get the same response and no email.
	rec = env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]any{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@example.com", sent[0].To.Address)
	assert.Contains(t, sent[0].TextBody, "/reset-password?token=")

	rec = env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]any{
		"token":    "garbage",
		"password": "new-password-123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFixMIMEUnavailableWithoutBucket(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.admin(t)

	rec := env.do(t, http.MethodPost, "/api/admin/storage/fix-mime", adminToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnpublishedCourseHiddenFromStudents(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.admin(t)

	manifest := `{"slug": "draft", "title": "Draft", "published": false,
	  "modules": [{"title": "M", "lessons": [{"title": "L"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/courses/import", bytes.NewReader([]byte(manifest)))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, studentToken := env.register(t, "student@example.com")
	recGet := env.do(t, http.MethodGet, "/api/courses/draft", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, recGet.Code)

	// Admin still sees it.
	recGet = env.do(t, http.MethodGet, "/api/courses/draft", adminToken, nil)
	assert.Equal(t, http.StatusOK, recGet.Code)
}
