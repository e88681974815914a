package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeHealth(t *testing.T, body io.Reader) healthResponse {
	t.Helper()
	var resp healthResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer(":0", slog.Default())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := decodeHealth(t, rec.Body).Status; got != "ok" {
		t.Errorf("expected status 'ok', got '%s'", got)
	}
}

func TestHealthServer_Readiness(t *testing.T) {
	server := NewHealthServer(":0", slog.Default())
	var failing error
	server.AddCheck("scheduler", func() error { return failing })

	get := func() (int, healthResponse) {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		return rec.Code, decodeHealth(t, rec.Body)
	}

	code, resp := get()
	if code != http.StatusServiceUnavailable || resp.Status != "not ready" {
		t.Errorf("before SetReady: got %d %q", code, resp.Status)
	}

	server.SetReady(true)
	code, resp = get()
	if code != http.StatusOK || resp.Checks["scheduler"] != "ok" {
		t.Errorf("ready: got %d %+v", code, resp)
	}

	failing = errors.New("scheduler stopped")
	code, resp = get()
	if code != http.StatusServiceUnavailable || resp.Checks["scheduler"] != "scheduler stopped" {
		t.Errorf("failing check: got %d %+v", code, resp)
	}
}

func TestHealthServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	server := NewHealthServer(addr, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server not running: %v", err)
	}
	_ = resp.Body.Close()

	cancel()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("expected http.ErrServerClosed, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown timeout")
	}
}

func TestSetReady(t *testing.T) {
	server := NewHealthServer(":9091", slog.Default())

	if server.isReady.Load() {
		t.Error("expected isReady to be false initially")
	}
	server.SetReady(true)
	if !server.isReady.Load() {
		t.Error("expected isReady to be true after SetReady(true)")
	}
	server.SetReady(false)
	if server.isReady.Load() {
		t.Error("expected isReady to be false after SetReady(false)")
	}
}
