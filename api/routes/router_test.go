package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cashvault-backend/internal/vault"
	"github.com/angelmondragon/cashvault-backend/pkg/config"
	"github.com/angelmondragon/cashvault-backend/pkg/db/models"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/pagination"
	"github.com/angelmondragon/cashvault-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type countingVault struct {
	receives int
}

func (c *countingVault) EnsureVault(context.Context) error { return nil }

func (c *countingVault) Balance(context.Context, int64) (*models.Vault, error) {
	return &models.Vault{ID: 1}, nil
}

func (c *countingVault) Movements(context.Context, int64, pagination.Params) (*pagination.Page[models.VaultMovement], error) {
	return &pagination.Page[models.VaultMovement]{}, nil
}

func (c *countingVault) Receive(_ context.Context, input vault.PostingInput) (*vault.PostingResult, error) {
	c.receives++
	return &vault.PostingResult{NewBalance: decimal.NewFromInt(int64(c.receives) * 100)}, nil
}

func (c *countingVault) Withdraw(ctx context.Context, input vault.PostingInput) (*vault.PostingResult, error) {
	return c.Receive(ctx, input)
}

func newTestRouter(t *testing.T, svc vault.Service) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rdb.Close() })

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "cashvault_test_total", Help: "test"}))

	return NewRouter(RouterParams{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:      logger.Nop(),
		DB:          stubPinger{},
		Redis:       rdb,
		Idempotency: rdb,
		Gatherer:    reg,
		Vault:       svc,
	})
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, &countingVault{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"), path)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cashvault_test_total")
}

func TestRouterReceiveRequiresIdempotencyKey(t *testing.T) {
	svc := &countingVault{}
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/vault/receive", strings.NewReader(`{"amount":"100","notes":{"hundreds":1}}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.receives)
}

func TestRouterReceiveReplaysByKey(t *testing.T) {
	svc := &countingVault{}
	router := newTestRouter(t, svc)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/vault/receive", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "deposit-1")
		req.Header.Set("X-Operator-Id", "teller-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send(`{"amount":"100","notes":{"hundreds":1}}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := send(`{"amount":"100","notes":{"hundreds":1}}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, svc.receives)

	reused := send(`{"amount":"200","notes":{"hundreds":2}}`)
	require.Equal(t, http.StatusConflict, reused.Code)
	assert.Contains(t, reused.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, svc.receives)
}

func TestRouterVaultBalanceNeedsNoKey(t *testing.T) {
	router := newTestRouter(t, &countingVault{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vault/1/balance", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
