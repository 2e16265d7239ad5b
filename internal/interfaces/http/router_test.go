package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/docsphere/docsphere/internal/infrastructure/config"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/seeds"
	sharedConfig "github.com/docsphere/docsphere/internal/shared/config"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWT: sharedConfig.JWTConfig{Secret: "router-test", Issuer: "docsphere", AccessTTL: time.Hour},
		Limits: sharedConfig.LimitsConfig{
			RateLimitRPM:   60,
			IdempotencyTTL: 30 * time.Minute,
			PlanCacheTTL:   time.Minute,
		},
		Metrics: sharedConfig.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	c, err := NewContainer(gdb, rdb, cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(c.Shutdown)
	require.NoError(t, seeds.SeedPlans(context.Background(), c.repos.planRepo, seeds.DefaultPlans()))

	c.SetupRoutes()
	return c
}

func doJSON(t *testing.T, c *Container, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
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
	c.GetEngine().ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestRouter_TenantLifecycle(t *testing.T) {
	c := newTestContainer(t)

	w, env := doJSON(t, c, http.MethodPost, "/api/v1/tenants", "", map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		TenantID    string `json:"tenant_id"`
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.AccessToken)

	t.Run("limits require a token", func(t *testing.T) {
		w, _ := doJSON(t, c, http.MethodGet, "/api/v1/limits/current", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("current limits", func(t *testing.T) {
		w, env := doJSON(t, c, http.MethodGet, "/api/v1/limits/current", created.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, string(env.Data), `"id":"hobby"`)
	})

	projects := "/api/v1/tenants/" + created.TenantID + "/projects"

	t.Run("first project fits the hobby plan", func(t *testing.T) {
		w, _ := doJSON(t, c, http.MethodPost, projects, created.AccessToken, map[string]string{"name": "docs"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("same name resolves to the existing project", func(t *testing.T) {
		w, _ := doJSON(t, c, http.MethodPost, projects, created.AccessToken, map[string]string{"name": "docs"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("second project exceeds the plan", func(t *testing.T) {
		w, env := doJSON(t, c, http.MethodPost, projects, created.AccessToken, map[string]string{"name": "faq"})
		require.Equal(t, http.StatusPaymentRequired, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "project_limit_reached", env.Error.Reason)
	})
}

func TestRouter_PublicEndpoints(t *testing.T) {
	c := newTestContainer(t)

	w, env := doJSON(t, c, http.MethodGet, "/api/v1/plans", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))
	assert.Contains(t, string(env.Data), `"business"`)

	w, _ = doJSON(t, c, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, c, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
