package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/loomos/internal/app/features/health"
	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
	Cache    string `json:"cache"`
	Error    string `json:"error"`
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	return get(t, h, "/")
}

func get(t *testing.T, h *health.Handler, path string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	health.Routes(h).ServeHTTP(rec, req)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_StoreConnected(t *testing.T) {
	h := health.NewHandler(organizationstore.NewMemoryStore(), "memory", zap.NewNop())
	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if resp.Status != "ok" || resp.Database != "connected" || resp.Driver != "memory" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Cache != "" {
		t.Errorf("cache reported without a cache: %q", resp.Cache)
	}
}

func TestServe_StoreDown(t *testing.T) {
	h := health.NewHandler(downStore{}, "postgres", zap.NewNop())
	rec, resp := serve(t, h)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.Database != "disconnected" || resp.Error == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestServe_CacheStatus(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := organizationstore.NewCached(organizationstore.NewMemoryStore(), client, time.Minute, zap.NewNop())
	h := health.NewHandler(store, "memory", zap.NewNop())

	rec, resp := serve(t, h)
	if rec.Code != http.StatusOK || resp.Cache != "connected" {
		t.Fatalf("status %d, response %+v", rec.Code, resp)
	}

	mr.Close()
	rec, resp = serve(t, h)
	if rec.Code != http.StatusOK || resp.Cache != "degraded" {
		t.Errorf("cache down: status %d, response %+v", rec.Code, resp)
	}
}

func TestLive_SkipsBackends(t *testing.T) {
	h := health.NewHandler(downStore{}, "mongo", zap.NewNop())
	rec, resp := get(t, h, "/live")
	if rec.Code != http.StatusOK || resp.Status != "ok" || resp.Database != "" {
		t.Errorf("status %d, response %+v", rec.Code, resp)
	}
}
