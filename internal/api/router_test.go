package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/identity"
	"github.com/mikey/scamguard/internal/adapters/ratelimit"
	"github.com/mikey/scamguard/internal/adapters/store"
	"github.com/mikey/scamguard/internal/api/handlers"
	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/metrics"
	"github.com/mikey/scamguard/internal/rules"
	"github.com/mikey/scamguard/internal/scoring"
	"github.com/mikey/scamguard/internal/sender"
	"github.com/mikey/scamguard/internal/utils"
	"github.com/mikey/scamguard/internal/validation"
)

const testSecret = "test-secret"

type testServer struct {
	handler http.Handler
	service *core.AnalysisService
	jwt     *identity.JWTProvider
	metrics *metrics.Recorder
}

type fakeLimiter struct {
	result ratelimit.Result
	err    error
	calls  []string
}

func (f *fakeLimiter) Allow(_ context.Context, clientID string) (ratelimit.Result, error) {
	f.calls = append(f.calls, clientID)
	return f.result, f.err
}

func newTestServer(t *testing.T, withStore bool, limiter *fakeLimiter) *testServer {
	t.Helper()
	logger := zap.NewNop()

	jwtProvider := identity.NewJWTProvider(testSecret, "")
	recorder := metrics.NewRecorder()

	var analysisStore core.AnalysisStore
	if withStore {
		mem := store.NewMemoryStore(logger, 0, 0)
		t.Cleanup(mem.Stop)
		analysisStore = mem
	}

	service := core.NewAnalysisService(
		scoring.NewEngine(rules.MustCompile(rules.Default()), logger),
		validation.NewRequestValidator(),
		jwtProvider,
		analysisStore,
		nil,
		sender.NewChecker(nil, logger),
		utils.NewTextProcessor(logger),
		recorder,
		logger,
		core.ServiceOptions{MaxContentBytes: 10000},
	)

	h := handlers.NewHandlers(service, map[string]handlers.HealthCheck{
		"store": func(context.Context) error { return nil },
	}, logger)

	opts := Options{Authenticator: jwtProvider, Metrics: recorder}
	if limiter != nil {
		opts.Limiter = limiter
	}
	router := NewRouter(h, opts, logger)

	return &testServer{handler: router.Setup(), service: service, jwt: jwtProvider, metrics: recorder}
}

func (s *testServer) token(t *testing.T, id string, role core.Role) string {
	t.Helper()
	tok, err := s.jwt.Issue(&core.User{ID: id, Email: id + "@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

const scamEmail = `{"type":"email","content":"URGENT: Your account will be suspended in 24 hours. Click here to verify.","sender":"alerts@example.com"}`

func TestAnalyzeScamEmail(t *testing.T) {
	s := newTestServer(t, true, nil)

	rec := s.do(http.MethodPost, "/api/analyze", scamEmail, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, true, body["isScam"])
	assert.Equal(t, "Spam", body["result"])
	assert.GreaterOrEqual(t, body["confidence"].(float64), 0.6)
	assert.Len(t, body["recommendations"], 5)
	assert.NotEmpty(t, body["processingId"])
	assert.Contains(t, body, "entities")
	assert.Contains(t, body, "details")

	words := map[string]bool{}
	for _, kw := range body["detectedKeywords"].([]interface{}) {
		m := kw.(map[string]interface{})
		words[m["word"].(string)] = true
	}
	assert.True(t, words["urgent"])
	assert.True(t, words["suspended"])
}

func TestAnalyzeAcceptsUpperCaseType(t *testing.T) {
	s := newTestServer(t, false, nil)

	rec := s.do(http.MethodPost, "/api/analyze", `{"type":"SMS","content":"See you at 6pm.","sender":"+91 98765 43210"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.AnalysisResult
	decode(t, rec, &result)
	assert.Equal(t, core.MessageTypeSMS, result.Type)
	assert.False(t, result.IsScam)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestAnalyzeValidationErrors(t *testing.T) {
	s := newTestServer(t, true, nil)

	tests := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{"invalid email sender", `{"type":"email","content":"hello","sender":"not-an-email"}`, validation.MessageInvalidEmail, "sender"},
		{"invalid phone sender", `{"type":"sms","content":"hello","sender":"abc"}`, validation.MessageInvalidPhone, "sender"},
		{"missing content", `{"type":"sms","sender":"+15551234567"}`, validation.MessageMissingFields, "content"},
		{"unknown type", `{"type":"fax","content":"hello","sender":"x"}`, validation.MessageInvalid, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/analyze", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body validation.ValidationError
			decode(t, rec, &body)
			assert.Equal(t, tt.message, body.Message)
			assert.Contains(t, body.Errors, tt.field)
		})
	}
}

func TestAnalyzeMalformedBody(t *testing.T) {
	s := newTestServer(t, false, nil)

	rec := s.do(http.MethodPost, "/api/analyze", `{"type":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestAnalyzeBodyTooLarge(t *testing.T) {
	s := newTestServer(t, false, nil)

	big := `{"type":"sms","sender":"+15551234567","content":"` + strings.Repeat("a", handlers.MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(big))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAuthenticatedAnalysisIsRecorded(t *testing.T) {
	s := newTestServer(t, true, nil)
	token := s.token(t, "user-1", core.RoleUser)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/analyze", scamEmail, token).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/analyze", scamEmail, "").Code)
	s.service.Wait()

	rec := s.do(http.MethodGet, "/api/dashboard/history", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Analyses []core.AnalysisRecord `json:"analyses"`
		Count    int                   `json:"count"`
	}
	decode(t, rec, &history)
	require.Equal(t, 1, history.Count)
	assert.Equal(t, "user-1", history.Analyses[0].UserID)
	assert.True(t, history.Analyses[0].IsScam)

	rec = s.do(http.MethodGet, "/api/dashboard/stats", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash core.Dashboard
	decode(t, rec, &dash)
	assert.Equal(t, int64(1), dash.Stats.Total)
	assert.Equal(t, int64(1), dash.Stats.Scams)
	assert.Equal(t, 0.0, dash.Stats.ProtectionRate)
	assert.Len(t, dash.Recent, 1)
}

func TestHistoryLimitValidation(t *testing.T) {
	s := newTestServer(t, true, nil)
	token := s.token(t, "user-1", core.RoleUser)

	rec := s.do(http.MethodGet, "/api/dashboard/history?limit=abc", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardRequiresUser(t *testing.T) {
	s := newTestServer(t, true, nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/dashboard/stats", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/dashboard/stats", "", "garbage").Code)
}

func TestInvalidTokenRejectedOnAnalyze(t *testing.T) {
	s := newTestServer(t, true, nil)

	other := identity.NewJWTProvider("other-secret", "")
	tok, err := other.Issue(&core.User{ID: "u", Role: core.RoleUser}, time.Hour)
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/api/analyze", scamEmail, tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, true, nil)
	userToken := s.token(t, "user-1", core.RoleUser)
	adminToken := s.token(t, "admin-1", core.RoleAdmin)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/analyze", scamEmail, userToken).Code)
	s.service.Wait()

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/stats", "", "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/stats", "", userToken).Code)

	rec := s.do(http.MethodGet, "/api/admin/stats", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats core.GlobalStats
	decode(t, rec, &stats)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalAnalyses)
	assert.Equal(t, int64(1), stats.Email.Scams)
	assert.Equal(t, 100.0, stats.DetectionRate)

	rec = s.do(http.MethodGet, "/api/admin/users", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var users struct {
		Users []core.UserSummary `json:"users"`
	}
	decode(t, rec, &users)
	require.Len(t, users.Users, 1)
	assert.Equal(t, "user-1", users.Users[0].UserID)
}

func TestStoreDisabled(t *testing.T) {
	s := newTestServer(t, false, nil)
	token := s.token(t, "user-1", core.RoleUser)

	rec := s.do(http.MethodGet, "/api/dashboard/history", "", token)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/users", "", s.token(t, "admin", core.RoleAdmin))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{
		Allowed:   false,
		Limit:     10,
		Remaining: 0,
		ResetAt:   time.Now().Add(30 * time.Second),
	}}
	s := newTestServer(t, false, limiter)

	rec := s.do(http.MethodPost, "/api/analyze", scamEmail, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Len(t, limiter.calls, 1)
	assert.True(t, strings.HasPrefix(limiter.calls[0], "ip:"))
}

func TestRateLimitKeyedByUser(t *testing.T) {
	limiter := &fakeLimiter{result: ratelimit.Result{Allowed: true, Limit: 10, Remaining: 9, ResetAt: time.Now()}}
	s := newTestServer(t, false, limiter)

	rec := s.do(http.MethodPost, "/api/analyze", scamEmail, s.token(t, "user-7", core.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, []string{"user:user-7"}, limiter.calls)
}

func TestRateLimitFailureAllowsRequest(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis: connection refused")}
	s := newTestServer(t, false, limiter)

	rec := s.do(http.MethodPost, "/api/analyze", scamEmail, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false, nil)

	rec := s.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"store":"ok"}}`, rec.Body.String())

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/analyze", scamEmail, "").Code)

	rec = s.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scamguard_analyses_total")
	assert.Contains(t, rec.Body.String(), `endpoint="/api/analyze"`)
}

func TestHealthDegraded(t *testing.T) {
	h := handlers.NewHandlers(nil, map[string]handlers.HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	}, zap.NewNop())
	handler := NewRouter(h, Options{}, zap.NewNop()).Setup()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
