package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/api/dto"
	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/events"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/service"
	"github.com/spec-kit/employee-directory/internal/upload"
	"github.com/spec-kit/employee-directory/internal/worker"
	apperrors "github.com/spec-kit/employee-directory/pkg/util"
)

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

type testServer struct {
	app       *fiber.App
	uploadDir string
}

func newTestServer(t *testing.T, requireAuth bool) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		App:    config.AppConfig{Name: "employee-directory-test", RequestTimeoutSeconds: 5},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4, Enforce: requireAuth},
		Upload: config.UploadConfig{Dir: t.TempDir(), PublicPath: "/uploads", MaxBytes: config.DefaultUploadMaxBytes},
		CORS:   config.CORSConfig{AllowOrigins: "*"},
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	pictures, err := upload.NewStore(cfg.Upload)
	require.NoError(t, err)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartPictureJanitor(dispatcher, pictures, logger)

	employeeService := service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo: repository.NewMemoryEmployeeRepository(),
		Pictures:     pictures,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	users := repository.NewMemoryUserRepository()
	revocations := &memoryRevocations{revoked: map[string]time.Duration{}}
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: users, Revoker: revocations})

	app := NewApp(cfg, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, "test", nil),
		Employees:      handlers.NewEmployeesHandler(employeeService),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users, revocations),
		RequireAuth:    cfg.Auth.Enforce,
		Upload:         cfg.Upload,
		Gatherer:       registry,
	})
	return &testServer{app: app, uploadDir: cfg.Upload.Dir}
}

type picturePart struct {
	filename    string
	contentType string
	size        int
}

func anaFields() map[string]string {
	return map[string]string{
		"first_name":  "Ana",
		"last_name":   "Lee",
		"email":       "ana@x.com",
		"position":    "Engineer",
		"department":  "R&D",
		"salary":      "90000",
		"date_joined": "2023-01-15",
	}
}

func multipartBody(t *testing.T, fields map[string]string, picture *picturePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if picture != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, handlers.PictureField, picture.filename))
		header.Set("Content-Type", picture.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xAB}, picture.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *testServer) do(t *testing.T, method, target string, body io.Reader, contentType, token string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) submit(t *testing.T, method, target string, fields map[string]string, picture *picturePart, token string) (int, []byte) {
	t.Helper()
	body, contentType := multipartBody(t, fields, picture)
	return s.do(t, method, target, body, contentType, token)
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestEmployeeLifecycle(t *testing.T) {
	srv := newTestServer(t, false)

	status, raw := srv.submit(t, http.MethodPost, "/api/employees", anaFields(), nil, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[dto.EmployeeMutationResponse](t, raw)
	assert.Equal(t, "Employee created successfully", created.Message)
	require.NotEmpty(t, created.Employee.ID)
	assert.Equal(t, created.Employee.ID, created.Employee.LegacyID)
	assert.Equal(t, "Ana", created.Employee.FirstName)
	assert.Equal(t, "2023-01-15", created.Employee.DateJoined)
	assert.Equal(t, 90000.0, created.Employee.Salary)
	id := created.Employee.ID

	older := anaFields()
	older["email"] = "bo@x.com"
	older["first_name"] = "Bo"
	status, raw = srv.submit(t, http.MethodPost, "/api/employees", older, nil, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	boID := decode[dto.EmployeeMutationResponse](t, raw).Employee.ID

	status, raw = srv.do(t, http.MethodGet, "/api/employees", nil, "", "")
	require.Equal(t, http.StatusOK, status)
	list := decode[[]dto.EmployeeResponse](t, raw)
	require.Len(t, list, 2)
	assert.Equal(t, boID, list[0].ID)
	assert.Equal(t, id, list[1].ID)

	update := anaFields()
	update["salary"] = "95000"
	status, raw = srv.submit(t, http.MethodPut, "/api/employees/"+id, update, nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, "Employee updated successfully", decode[dto.EmployeeMutationResponse](t, raw).Message)

	status, raw = srv.do(t, http.MethodGet, "/api/employees/"+id, nil, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 95000.0, decode[dto.EmployeeResponse](t, raw).Salary)

	status, raw = srv.do(t, http.MethodDelete, "/api/employees/"+id, nil, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dto.MessageResponse{Message: "Employee deleted successfully"}, decode[dto.MessageResponse](t, raw))

	status, raw = srv.do(t, http.MethodGet, "/api/employees/"+id, nil, "", "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.Body{Message: MessageEmployeeNotFound}, decode[apperrors.Body](t, raw))

	status, _ = srv.do(t, http.MethodDelete, "/api/employees/"+id, nil, "", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, false)

	status, _ := srv.submit(t, http.MethodPost, "/api/employees", anaFields(), nil, "")
	require.Equal(t, http.StatusCreated, status)

	dup := anaFields()
	dup["email"] = "ANA@X.COM"
	status, raw := srv.submit(t, http.MethodPost, "/api/employees", dup, nil, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MessageDuplicateEmail, decode[apperrors.Body](t, raw).Message)
}

func TestUpdateEmailConflict(t *testing.T) {
	srv := newTestServer(t, false)

	status, _ := srv.submit(t, http.MethodPost, "/api/employees", anaFields(), nil, "")
	require.Equal(t, http.StatusCreated, status)
	bo := anaFields()
	bo["email"] = "bo@x.com"
	status, raw := srv.submit(t, http.MethodPost, "/api/employees", bo, nil, "")
	require.Equal(t, http.StatusCreated, status)
	boID := decode[dto.EmployeeMutationResponse](t, raw).Employee.ID

	bo["email"] = "ana@x.com"
	status, raw = srv.submit(t, http.MethodPut, "/api/employees/"+boID, bo, nil, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MessageDuplicateEmail, decode[apperrors.Body](t, raw).Message)

	status, _ = srv.submit(t, http.MethodPut, "/api/employees/missing-id", anaFields(), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateMissingFields(t *testing.T) {
	srv := newTestServer(t, false)

	fields := anaFields()
	delete(fields, "department")
	fields["last_name"] = "  "
	status, raw := srv.submit(t, http.MethodPost, "/api/employees", fields, nil, "")
	require.Equal(t, http.StatusBadRequest, status)
	body := decode[apperrors.Body](t, raw)
	assert.Equal(t, service.MessageFieldsRequired, body.Message)
	assert.Contains(t, body.Error, "last_name")
	assert.Contains(t, body.Error, "department")

	status, raw = srv.do(t, http.MethodPut, "/api/employees/any", nil, "", "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, service.MessageFieldsRequired, decode[apperrors.Body](t, raw).Message)
}

func TestSearchRoutes(t *testing.T) {
	srv := newTestServer(t, false)

	rows := []struct{ email, position, department string }{
		{"a@x.com", "Manager", "Engineering"},
		{"b@x.com", "Engineer", "R&D"},
		{"c@x.com", "Accountant", "Finance"},
	}
	for _, row := range rows {
		fields := anaFields()
		fields["email"] = row.email
		fields["position"] = row.position
		fields["department"] = row.department
		status, raw := srv.submit(t, http.MethodPost, "/api/employees", fields, nil, "")
		require.Equal(t, http.StatusCreated, status, string(raw))
	}

	cases := map[string]int{
		"/api/employees/search/eng":                         2,
		"/api/employees/search/ENG":                         2,
		"/api/employees/search/" + url.PathEscape("R&D"):    1,
		"/api/employees/search/sales":                       0,
		"/api/employees/search":                             3,
		"/api/employees/search/":                            3,
		"/api/employees/search?q=" + url.QueryEscape("fin"): 1,
	}
	for target, want := range cases {
		status, raw := srv.do(t, http.MethodGet, target, nil, "", "")
		require.Equal(t, http.StatusOK, status, target)
		assert.Len(t, decode[[]dto.EmployeeResponse](t, raw), want, target)
	}
}

func TestProfilePictureUploads(t *testing.T) {
	srv := newTestServer(t, false)

	status, raw := srv.submit(t, http.MethodPost, "/api/employees", anaFields(),
		&picturePart{filename: "photo.JPG", contentType: "image/jpeg", size: 4 << 20}, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	employee := decode[dto.EmployeeMutationResponse](t, raw).Employee
	require.NotEmpty(t, employee.ProfilePicture)
	assert.True(t, strings.HasSuffix(employee.ProfilePicture, ".JPG"))

	stored := filepath.Join(srv.uploadDir, employee.ProfilePicture)
	info, err := os.Stat(stored)
	require.NoError(t, err)
	assert.EqualValues(t, 4<<20, info.Size())

	status, _ = srv.do(t, http.MethodGet, "/uploads/"+employee.ProfilePicture, nil, "", "")
	assert.Equal(t, http.StatusOK, status)

	// update without a file keeps the stored picture
	status, raw = srv.submit(t, http.MethodPut, "/api/employees/"+employee.ID, anaFields(), nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, employee.ProfilePicture, decode[dto.EmployeeMutationResponse](t, raw).Employee.ProfilePicture)

	// replacing the picture releases the previous file
	status, raw = srv.submit(t, http.MethodPut, "/api/employees/"+employee.ID, anaFields(),
		&picturePart{filename: "new.png", contentType: "image/png", size: 128}, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	replaced := decode[dto.EmployeeMutationResponse](t, raw).Employee.ProfilePicture
	assert.NotEqual(t, employee.ProfilePicture, replaced)
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	status, _ = srv.do(t, http.MethodDelete, "/api/employees/"+employee.ID, nil, "", "")
	require.Equal(t, http.StatusOK, status)
	_, err = os.Stat(filepath.Join(srv.uploadDir, replaced))
	assert.True(t, os.IsNotExist(err))
}

func TestProfilePictureRejections(t *testing.T) {
	srv := newTestServer(t, false)

	cases := []struct {
		name    string
		picture picturePart
		message string
	}{
		{"executable", picturePart{filename: "payload.exe", contentType: "application/octet-stream", size: 16}, MessageImagesOnly},
		{"spoofed mime", picturePart{filename: "photo.png", contentType: "text/plain", size: 16}, MessageImagesOnly},
		{"too large", picturePart{filename: "big.png", contentType: "image/png", size: 6 << 20}, MessageFileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			picture := tc.picture
			status, raw := srv.submit(t, http.MethodPost, "/api/employees", anaFields(), &picture, "")
			require.Equal(t, http.StatusBadRequest, status, string(raw))
			assert.Equal(t, tc.message, decode[apperrors.Body](t, raw).Message)
		})
	}

	status, raw := srv.do(t, http.MethodGet, "/api/employees", nil, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]dto.EmployeeResponse](t, raw))

	entries, err := os.ReadDir(srv.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmployeeRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, true)

	status, raw := srv.do(t, http.MethodGet, "/api/employees", nil, "", "")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing authorization header", decode[apperrors.Body](t, raw).Message)

	signup := strings.NewReader(`{"name":"Admin","email":"admin@x.com","password":"secret1"}`)
	status, raw = srv.do(t, http.MethodPost, "/api/auth/signup", signup, fiber.MIMEApplicationJSON, "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	session := decode[dto.AuthResponse](t, raw)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "admin@x.com", session.User.Email)

	status, raw = srv.do(t, http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"name":"Admin","email":"admin@x.com","password":"secret1"}`), fiber.MIMEApplicationJSON, "")
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	status, _ = srv.do(t, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"admin@x.com","password":"nope-nope"}`), fiber.MIMEApplicationJSON, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw = srv.do(t, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"admin@x.com","password":"secret1"}`), fiber.MIMEApplicationJSON, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	token := decode[dto.AuthResponse](t, raw).Token

	status, _ = srv.do(t, http.MethodGet, "/api/employees", nil, "", token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, http.MethodPost, "/api/auth/logout", nil, "", token)
	require.Equal(t, http.StatusOK, status)

	status, raw = srv.do(t, http.MethodGet, "/api/employees", nil, "", token)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", decode[apperrors.Body](t, raw).Message)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, false)

	status, _ := srv.do(t, http.MethodGet, "/health/live", nil, "", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = srv.do(t, http.MethodGet, "/health/ready", nil, "", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, http.MethodGet, "/api/employees/unknown", nil, "", "")
	require.Equal(t, http.StatusNotFound, status)

	status, raw := srv.do(t, http.MethodGet, "/metrics", nil, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "http_requests_total")
	assert.Contains(t, string(raw), `code="NOT_FOUND"`)
}
