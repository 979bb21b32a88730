package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"github.com/nerrad567/kanban-core/internal/audit"
	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/board"
	"github.com/nerrad567/kanban-core/internal/infrastructure/config"
	"github.com/nerrad567/kanban-core/internal/infrastructure/database"
	"github.com/nerrad567/kanban-core/internal/infrastructure/logging"
	_ "github.com/nerrad567/kanban-core/migrations" // registers the schema
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// recordingEvents captures published events.
type recordingEvents struct {
	mu     sync.Mutex
	topics []string
}

func (e *recordingEvents) PublishJSON(topic string, _ any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
	return nil
}

func (e *recordingEvents) published() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.topics...)
}

// recordingMetrics captures metric writes.
type recordingMetrics struct {
	mu       sync.Mutex
	requests []string
	auth     []string
	boards   []string
}

func (m *recordingMetrics) WriteHTTPRequest(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, fmt.Sprintf("%s %s %d", method, route, status))
}

func (m *recordingMetrics) WriteAuthEvent(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = append(m.auth, outcome)
}

func (m *recordingMetrics) WriteBoardEvent(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards = append(m.boards, action)
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	db      *sqlx.DB
	tokens  *auth.TokenService
	events  *recordingEvents
	metrics *recordingMetrics
}

// testServer builds a Server over a migrated temp-file database.
// mutate adjusts the dependencies before New is called.
func testServer(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "api-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	tokens, err := auth.NewTokenService(testSecret, auth.DefaultIssuer, auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	boards := board.NewRepository(db.DB)
	env := &testEnv{
		db:      db.DB,
		tokens:  tokens,
		events:  &recordingEvents{},
		metrics: &recordingMetrics{},
	}

	deps := Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
			CORS:     config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, Issuer: auth.DefaultIssuer, AccessTokenTTL: 120},
		},
		Logger:      logging.Discard(),
		DB:          db,
		Auth:        auth.NewService(auth.NewUserRepository(db.DB), tokens),
		Boards:      boards,
		Provisioner: board.NewProvisioner(db.DB),
		Guard:       board.NewGuard(boards),
		AuditRepo:   audit.NewSQLiteRepository(db.DB),
		Events:      env.events,
		Metrics:     env.metrics,
		Version:     "test",
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	env.srv = srv
	env.handler = srv.buildRouter()
	return env
}

// do sends a request through the router. An empty token sends no
// Authorization header.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its bearer token.
func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/usuarios", "", map[string]string{
		"nome": name, "email": email, "senha": "123456",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body)
	}
	return e.login(t, email, "123456")
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": email, "senha": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, rec.Code, rec.Body)
	}
	var resp loginResponse
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return resp.Token
}

func (e *testEnv) createBoard(t *testing.T, token, name string) board.Board {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/quadros", token, map[string]string{"nome": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create board: status = %d, body = %s", rec.Code, rec.Body)
	}
	var b board.Board
	decode(t, rec, &b)
	return b
}

// signToken signs arbitrary claims with the test secret.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e Error
	decode(t, rec, &e)
	return e.Code
}

func TestNew_RequiresDependencies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Deps)
	}{
		{"no logger", func(d *Deps) { d.Logger = nil }},
		{"no auth", func(d *Deps) { d.Auth = nil }},
		{"no provisioner", func(d *Deps) { d.Provisioner = nil }},
		{"no guard", func(d *Deps) { d.Guard = nil }},
	}

	env := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := Deps{
				Logger:      env.srv.logger,
				Auth:        env.srv.auth,
				Boards:      env.srv.boards,
				Provisioner: env.srv.provisioner,
				Guard:       env.srv.guard,
			}
			tt.mutate(&deps)
			if _, err := New(deps); err == nil {
				t.Error("New() succeeded with a missing dependency")
			}
		})
	}
}

func TestEndToEnd_BoardScenario(t *testing.T) {
	env := testServer(t)

	// Registration with the English field names.
	rec := env.do(t, http.MethodPost, "/api/usuarios", "", map[string]string{
		"name": "Ana", "email": "ana@x.com", "password": "123456",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "argon2") || strings.Contains(rec.Body.String(), "123456") {
		t.Errorf("register response leaks credentials: %s", rec.Body)
	}

	token := env.login(t, "ana@x.com", "123456")

	rec = env.do(t, http.MethodGet, "/api/quadros", token, nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("GET /api/quadros = %d %s, want 200 []", rec.Code, rec.Body)
	}

	b := env.createBoard(t, token, "Projeto")
	if b.Name != "Projeto" || len(b.Columns) != 3 {
		t.Fatalf("created board = %+v", b)
	}
	for i, want := range board.DefaultColumns {
		if b.Columns[i].Name != want || b.Columns[i].Position != i {
			t.Errorf("column %d = %+v, want %q at %d", i, b.Columns[i], want, i)
		}
	}

	path := fmt.Sprintf("/api/quadros/%d", b.ID)
	rec = env.do(t, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner GET %s = %d", path, rec.Code)
	}

	other := env.register(t, "Bruno", "bruno@x.com")
	rec = env.do(t, http.MethodGet, path, other, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other user GET %s = %d, want 403", path, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "ana@x.com") {
		t.Errorf("403 body names the owner: %s", rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/quadros", other, nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("other user's list = %s, want []", rec.Body)
	}

	rec = env.do(t, http.MethodGet, path, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous GET %s = %d, want 401", path, rec.Code)
	}
}

func TestAuthenticationGate(t *testing.T) {
	env := testServer(t)
	token := env.register(t, "Ana", "ana@x.com")

	expired := signToken(t, jwt.MapClaims{
		"iss": auth.DefaultIssuer,
		"sub": "ana@x.com",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	wrongIssuer := signToken(t, jwt.MapClaims{
		"iss": "someone-else",
		"sub": "ana@x.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic YW5hOjEyMzQ1Ng==", http.StatusUnauthorized},
		{"lowercase bearer", "bearer " + token, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/quadros", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestAuthenticationGate_InvalidTokenOnPublicRoute(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodPost, "/api/usuarios", "garbage", map[string]string{
		"nome": "Ana", "email": "ana@x.com", "senha": "123456",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("register with invalid token = %d, want 201", rec.Code)
	}
}

func TestAuthenticationGate_DeletedSubject(t *testing.T) {
	env := testServer(t)
	token := env.register(t, "Ana", "ana@x.com")

	users := auth.NewUserRepository(env.db)
	u, err := users.GetByEmail(t.Context(), "ana@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if err := users.Delete(t.Context(), u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/quadros", token, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("500 body leaks cause: %s", rec.Body)
	}
}

func TestAuthenticationGate_BindsPrincipal(t *testing.T) {
	env := testServer(t)
	token := env.register(t, "Ana", "ana@x.com")

	var got *auth.Principal
	h := env.srv.authenticationGate(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = auth.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("no principal bound")
	}
	if got.Subject() != "ana@x.com" || !got.HasAuthority(auth.AuthorityUser) {
		t.Errorf("principal = %+v", got)
	}
	if _, ok := auth.PrincipalFromContext(req.Context()); ok {
		t.Error("principal leaked into the original request context")
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	env := testServer(t)
	token := env.register(t, "Ana", "ana@x.com")

	if rec := env.do(t, http.MethodGet, "/api/nada", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous unknown route = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/nada", token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("authenticated unknown route = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestStartAndClose(t *testing.T) {
	env := testServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := env.srv.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := env.srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := env.srv.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() after Start error: %v", err)
	}

	env.srv.auditLog(audit.ActionLogin, audit.EntityUser, "1", 0, nil)
	if err := env.srv.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	result, err := env.srv.auditRepo.List(context.Background(), audit.Filter{Action: audit.ActionLogin})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("audit entries after Close = %d, want 1 (queued entry flushed)", result.Total)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testServer(t, func(d *Deps) {
		d.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 20, Burst: 5}
	})
	env.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "nobody@x.com", "senha": "123456"})

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var m SystemMetrics
	decode(t, rec, &m)
	if m.Version != "test" || m.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", m)
	}
	if !m.Integrations.EventsEnabled || !m.Integrations.MetricsEnabled {
		t.Errorf("integrations = %+v", m.Integrations)
	}
	if m.RateLimiter == nil || m.RateLimiter.TrackedClients != 1 {
		t.Errorf("rate limiter = %+v", m.RateLimiter)
	}
	if m.Database == nil || m.Database.OpenConnections > 1 {
		t.Errorf("database = %+v", m.Database)
	}
}
