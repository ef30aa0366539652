package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visitorpass/internal/passes/handler"
	"visitorpass/internal/passes/repository"
	"visitorpass/internal/passes/service"
	"visitorpass/internal/passes/validator"
	"visitorpass/pkg/app"
	"visitorpass/pkg/config"
	"visitorpass/pkg/logger"
	"visitorpass/pkg/model"
	"visitorpass/pkg/qrcode"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.Discard()
	cfg := config.FromEnv()
	cfg.Log = log

	repo := repository.NewMemoryPassRepository(repository.BasisValidTo)
	svc := service.NewPassService(repo, validator.NewPassValidator(log), log)

	qr, err := qrcode.NewGenerator(qrcode.DefaultOptions())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	pages, err := handler.LoadPages()
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}

	a := app.NewApplication(cfg)
	a.SetApp(
		handler.NewPassHandler(svc, qr, pages, "", log),
		handler.NewHealthHandler(svc.Count, nil, log),
	)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestPassClient_CreateAndView(t *testing.T) {
	srv := startServer(t)
	c := NewPassClient(srv.URL)
	ctx := context.Background()

	if err := c.WaitForHealthy(ctx); err != nil {
		t.Fatalf("WaitForHealthy: %v", err)
	}

	resp, err := c.CreatePass(ctx, model.CreatePassRequest{RequestID: "TEST-001", VisitorName: "Ada"})
	if err != nil {
		t.Fatalf("CreatePass: %v", err)
	}
	if !resp.Success || resp.PassURL != srv.URL+"/pass/TEST-001" {
		t.Errorf("unexpected response %+v", resp)
	}
	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		t.Fatalf("expiresAt %q: %v", resp.ExpiresAt, err)
	}
	if d := time.Until(expiresAt); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expiresAt %v is not about 24h away", expiresAt)
	}

	status, body, err := c.PassPage(ctx, "TEST-001")
	if err != nil {
		t.Fatalf("PassPage: %v", err)
	}
	if status != http.StatusOK || !strings.Contains(body, "data:image/png;base64,") {
		t.Errorf("unexpected ticket page: %d", status)
	}

	status, body, err = c.PassPage(ctx, "UNKNOWN")
	if err != nil {
		t.Fatalf("PassPage: %v", err)
	}
	if status != http.StatusNotFound || !strings.Contains(body, "Pass not found or has expired") {
		t.Errorf("unexpected not-found page: %d", status)
	}
}

func TestPassClient_CreateRejected(t *testing.T) {
	srv := startServer(t)
	c := NewPassClient(srv.URL)

	_, err := c.CreatePass(context.Background(), model.CreatePassRequest{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "requestId is required" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestHttpClient_POSTRawWrongContentType(t *testing.T) {
	srv := startServer(t)
	c := NewHttpClient(srv.URL)

	resp, err := c.POSTRaw(context.Background(), "/api/pass/create", []byte("requestId=1"), "text/plain")
	if err != nil {
		t.Fatalf("POSTRaw: %v", err)
	}
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestWaitForHealthy_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewHttpClient(srv.URL).WaitForHealthy(context.Background(), 50*time.Millisecond)
	if err == nil {
		t.Error("expected timeout error")
	}
}
