package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	pkgredis "github.com/angelmondragon/cashvault-backend/pkg/redis"
)

func newIdempotencyStore(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// keyed builds a request as chi would route it, with the route pattern set
// and an optional Idempotency-Key.
func keyed(method, pattern, url, key string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouteTTLSelection(t *testing.T) {
	cases := map[string]struct {
		method, pattern string
		want            time.Duration
		guarded         bool
	}{
		"receive":        {http.MethodPost, "/api/vault/receive", criticalIdempotencyTTL, true},
		"withdraw":       {http.MethodPost, "/api/vault/withdraw", criticalIdempotencyTTL, true},
		"create loading": {http.MethodPost, "/api/atm-loading", criticalIdempotencyTTL, true},
		"edit loading":   {http.MethodPut, "/api/atm-loading/{id}", defaultIdempotencyTTL, true},
		"delete loading": {http.MethodDelete, "/api/atm-loading/{id}", 0, false},
		"create client":  {http.MethodPost, "/api/clients", 0, false},
	}
	for name, tc := range cases {
		ttl, ok := routeTTL(tc.method, tc.pattern)
		if ok != tc.guarded {
			t.Fatalf("%s: guarded=%v, want %v", name, ok, tc.guarded)
		}
		if ok && ttl != tc.want {
			t.Fatalf("%s: ttl=%v, want %v", name, ttl, tc.want)
		}
	}
}

func TestIdempotencyRejectsMissingOrOversizedKey(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	h := Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler must not run without a usable key")
	}))

	for _, key := range []string{"", strings.Repeat("k", maxIdempotencyKeyLen+1)} {
		rec := serve(h, keyed(http.MethodPost, "/api/vault/receive", "/api/vault/receive", key, strings.NewReader(`{}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("key of length %d: status %d, want 400", len(key), rec.Code)
		}
	}
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	store, mr := newIdempotencyStore(t)
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"movementId":41}`))
	}))

	first := serve(h, keyed(http.MethodPost, "/api/vault/receive", "/api/vault/receive", "dep-1", strings.NewReader(`{"amount":"100"}`)))
	if first.Code != http.StatusCreated {
		t.Fatalf("first status %d", first.Code)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one stored record, got %v", mr.Keys())
	}
	if ttl := mr.TTL(mr.Keys()[0]); ttl != criticalIdempotencyTTL {
		t.Fatalf("completed record ttl %v, want %v", ttl, criticalIdempotencyTTL)
	}

	again := serve(h, keyed(http.MethodPost, "/api/vault/receive", "/api/vault/receive", "dep-1", strings.NewReader(`{"amount":"100"}`)))
	switch {
	case again.Code != http.StatusCreated:
		t.Fatalf("replay status %d", again.Code)
	case again.Header().Get(ReplayedHeader) != "true":
		t.Fatalf("replay marker missing")
	case again.Header().Get("Content-Type") != "application/json":
		t.Fatalf("content type not preserved")
	case strings.TrimSpace(again.Body.String()) != `{"movementId":41}`:
		t.Fatalf("replayed body %s", again.Body.String())
	case calls != 1:
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	serve(h, keyed(http.MethodPost, "/api/vault/withdraw", "/api/vault/withdraw", "wd-1", strings.NewReader(`{"amount":"50"}`)))
	rec := serve(h, keyed(http.MethodPost, "/api/vault/withdraw", "/api/vault/withdraw", "wd-1", strings.NewReader(`{"amount":"60"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("code %s, want %s", envelope.Error.Code, pkgerrors.CodeIdempotency)
	}
}

func TestIdempotencyReleasesKeyAfterServerError(t *testing.T) {
	store, mr := newIdempotencyStore(t)
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	failed := serve(h, keyed(http.MethodPost, "/api/atm-loading", "/api/atm-loading", "load-1", strings.NewReader(`{"a":1}`)))
	if failed.Code != http.StatusServiceUnavailable || len(mr.Keys()) != 0 {
		t.Fatalf("503 must release the key: status=%d keys=%v", failed.Code, mr.Keys())
	}

	retried := serve(h, keyed(http.MethodPost, "/api/atm-loading", "/api/atm-loading", "load-1", strings.NewReader(`{"a":1}`)))
	if retried.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("retry must reach the handler: status=%d calls=%d", retried.Code, calls)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected the successful response stored, got %v", mr.Keys())
	}
}

func TestIdempotencyKeysAreScopedPerOperator(t *testing.T) {
	store, mr := newIdempotencyStore(t)
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, operator := range []string{"teller-1", "teller-2"} {
		req := keyed(http.MethodPost, "/api/vault/withdraw", "/api/vault/withdraw", "shared", strings.NewReader(`{"amount":"10"}`))
		serve(h, req.WithContext(WithOperatorID(req.Context(), operator)))
	}
	if calls != 2 || len(mr.Keys()) != 2 {
		t.Fatalf("operators must not share keys: calls=%d keys=%v", calls, mr.Keys())
	}
}

func TestIdempotencyPassesThroughUnguardedRoutes(t *testing.T) {
	store, mr := newIdempotencyStore(t)
	called := false
	h := Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := serve(h, keyed(http.MethodGet, "/api/atm-loading", "/api/atm-loading", "", nil))
	if !called || rec.Code != http.StatusOK || len(mr.Keys()) != 0 {
		t.Fatalf("expected passthrough: called=%v code=%d keys=%v", called, rec.Code, mr.Keys())
	}
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	mw := Idempotency(store, nil)
	calls := 0
	var nested *httptest.ResponseRecorder
	var h http.Handler
	h = mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			nested = serve(h, keyed(http.MethodPost, "/api/vault/withdraw", "/api/vault/withdraw", "slow", strings.NewReader(`{"amount":"10"}`)))
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := serve(h, keyed(http.MethodPost, "/api/vault/withdraw", "/api/vault/withdraw", "slow", strings.NewReader(`{"amount":"10"}`)))
	if first.Code != http.StatusCreated {
		t.Fatalf("first status %d", first.Code)
	}
	if nested == nil || nested.Code != http.StatusConflict {
		t.Fatalf("in-flight duplicate must get 409")
	}
	if calls != 1 {
		t.Fatalf("duplicate reached the handler, calls=%d", calls)
	}
}
