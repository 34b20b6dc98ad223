package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sblp/sblpd/internal/bump"
	"github.com/sblp/sblpd/internal/bus"
	apperrors "github.com/sblp/sblpd/internal/errors"
	"github.com/sblp/sblpd/internal/server/handlers"
)

func newTestServer(authToken string) *Server {
	eventBus := bus.NewBus()
	gate := bump.NewGate(time.Hour)
	return New(Options{
		Host:      "127.0.0.1",
		Port:      0,
		AuthToken: authToken,
		Bump: &handlers.BumpService{
			Mapper:   &bump.Mapper{},
			Gate:     gate,
			Notifier: &bump.BusNotifier{Bus: eventBus, Source: "test"},
			Bus:      eventBus,
		},
	})
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodDelete, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("expected error code METHOD_NOT_ALLOWED, got %s", body.Error.Code)
	}
}

func TestBumpEndpointRequiresAuthBeforeCooldown(t *testing.T) {
	srv := newTestServer("secret-token")

	req := httptest.NewRequest(http.MethodPost, "/sblp/request",
		strings.NewReader(`{"type":"REQUEST","guild":"1","channel":"2","user":"3"}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	// Rejected-for-auth requests must not consume the cooldown.
	if last := srv.opts.Bump.Gate.LastAccepted(); !last.IsZero() {
		t.Fatalf("expected gate untouched after auth failure, last accepted %v", last)
	}
}

func TestBumpEndpointAcceptsBareTokenForm(t *testing.T) {
	srv := newTestServer("secret-token")

	req := httptest.NewRequest(http.MethodPost, "/sblp/request",
		strings.NewReader(`{"type":"REQUEST","guild":"1","channel":"2","user":"3"}`))
	req.Header.Set("Authorization", "secret-token")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpointsStayPublic(t *testing.T) {
	srv := newTestServer("secret-token")

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/version"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d", path, rec.Code)
		}
	}
}

func TestRootPathAliasesBumpEndpoint(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"type":"REQUEST","guild":"1","channel":"2","user":"3"}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
