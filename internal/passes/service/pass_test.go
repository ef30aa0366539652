package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"visitorpass/internal/passes/events"
	passeserrors "visitorpass/internal/passes/errors"
	"visitorpass/internal/passes/repository"
	"visitorpass/internal/passes/validator"
	"visitorpass/pkg/clock"
	apperrors "visitorpass/pkg/errors"
	"visitorpass/pkg/logger"
	"visitorpass/pkg/model"
)

// ────────────────────────────────────────────────
// Test helpers
// ────────────────────────────────────────────────

const testBaseURL = "http://localhost:3000"

var testStart = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	created []model.Pass
	swept   []int
}

func (p *recordingPublisher) PassCreated(_ context.Context, pass model.Pass) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, pass)
}

func (p *recordingPublisher) PassesSwept(_ context.Context, removed int, _ time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swept = append(p.swept, removed)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) sweptCounts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.swept...)
}

type failingKeys struct{}

func (failingKeys) Key(string, time.Time) (string, error) {
	return "", errors.New("no entropy")
}

func newTestService(t *testing.T, opts ...Option) (PassService, repository.PassRepository, *clock.Manual) {
	t.Helper()
	log := logger.Discard()
	repo := repository.NewMemoryPassRepository(repository.BasisValidTo)
	clk := clock.NewManual(testStart)
	opts = append([]Option{WithClock(clk)}, opts...)
	svc := NewPassService(repo, validator.NewPassValidator(log), log, opts...)
	return svc, repo, clk
}

// ────────────────────────────────────────────────
// Tests for Create()
// ────────────────────────────────────────────────

func TestCreate_DefaultWindow(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Create(context.Background(), &model.CreatePassRequest{RequestID: "TEST-001"}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !res.Pass.CreatedAt.Equal(testStart) {
		t.Errorf("createdAt = %v, want %v", res.Pass.CreatedAt, testStart)
	}
	if !res.Pass.ValidFrom.Equal(testStart) {
		t.Errorf("validFrom = %v, want %v", res.Pass.ValidFrom, testStart)
	}
	if want := testStart.Add(24 * time.Hour); !res.Pass.ValidTo.Equal(want) {
		t.Errorf("validTo = %v, want %v", res.Pass.ValidTo, want)
	}
	if res.Pass.Status != model.PassStatusActive {
		t.Errorf("status = %q, want active", res.Pass.Status)
	}
	if res.PassURL != testBaseURL+"/pass/TEST-001" {
		t.Errorf("passUrl = %q", res.PassURL)
	}
}

func TestCreate_ThenGetWithFixedClock(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: "TEST-001"}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := testStart.Add(24 * time.Hour); !res.Pass.ValidTo.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", res.Pass.ValidTo, want)
	}
	key := res.Pass.ID

	clk.Set(testStart.Add(1 * time.Hour))
	pass, expired, err := svc.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get at T+1h: %v", err)
	}
	if expired {
		t.Error("expected pass to be active at T+1h")
	}
	if pass.RequestID != "TEST-001" {
		t.Errorf("requestId = %q", pass.RequestID)
	}

	clk.Set(testStart.Add(25 * time.Hour))
	pass, expired, err = svc.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get at T+25h: %v", err)
	}
	if !expired || pass.Status != model.PassStatusExpired {
		t.Errorf("expected expired pass at T+25h, got expired=%v status=%q", expired, pass.Status)
	}

	removed := repo.Sweep(testStart.Add(26*time.Hour), time.Hour)
	if removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}

	_, _, err = svc.Get(ctx, key)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND after sweep, got %v", err)
	}
	if !errors.Is(err, passeserrors.ErrNotFound) {
		t.Errorf("expected wrapped ErrNotFound, got %v", err)
	}
}

func TestCreate_InvalidRequestLeavesStoreEmpty(t *testing.T) {
	tests := []struct {
		name string
		req  *model.CreatePassRequest
	}{
		{"nil request", nil},
		{"missing requestId", &model.CreatePassRequest{VisitorName: "Ada"}},
		{"whitespace requestId", &model.CreatePassRequest{RequestID: "   "}},
		{"bad validFrom", &model.CreatePassRequest{RequestID: "R1", ValidFrom: "tomorrow"}},
		{"inverted window", &model.CreatePassRequest{
			RequestID: "R1",
			ValidFrom: "2025-01-02T00:00:00Z",
			ValidTo:   "2025-01-01T00:00:00Z",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)

			_, err := svc.Create(context.Background(), tt.req, testBaseURL)
			if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if apperrors.AsAppError(err).StatusCode() != 400 {
				t.Errorf("status = %d, want 400", apperrors.AsAppError(err).StatusCode())
			}
			if repo.Count() != 0 {
				t.Errorf("store has %d entries, want 0", repo.Count())
			}
		})
	}
}

func TestCreate_AcceptsAnyNonEmptyRequestID(t *testing.T) {
	tests := []struct {
		name string
		req  *model.CreatePassRequest
	}{
		{"long requestId", &model.CreatePassRequest{RequestID: strings.Repeat("x", 129)}},
		{"slashes in requestId", &model.CreatePassRequest{RequestID: "VIS/2025/001"}},
		{"free-form email", &model.CreatePassRequest{RequestID: "R1", VisitorEmail: "not-an-email"}},
		{"long purpose", &model.CreatePassRequest{RequestID: "R1", Purpose: strings.Repeat("p", 2000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)

			res, err := svc.Create(context.Background(), tt.req, testBaseURL)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, ok := repo.Lookup(res.Pass.ID); !ok {
				t.Error("created pass not in store")
			}
		})
	}
}

func TestCreate_CallerSuppliedWindow(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "both bounds",
			from:     "2025-02-01T09:00:00Z",
			to:       "2025-02-01T17:00:00Z",
			wantFrom: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 2, 1, 17, 0, 0, 0, time.UTC),
		},
		{
			name:     "validFrom only",
			from:     "2025-02-01T09:00:00Z",
			wantFrom: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 2, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "validTo only",
			to:       "2025-01-01T18:00:00Z",
			wantFrom: testStart,
			wantTo:   time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC),
		},
		{
			name:     "offset converted to UTC",
			from:     "2025-02-01T10:00:00+01:00",
			to:       "2025-02-01T18:00:00+01:00",
			wantFrom: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 2, 1, 17, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			res, err := svc.Create(context.Background(), &model.CreatePassRequest{
				RequestID: "R1",
				ValidFrom: tt.from,
				ValidTo:   tt.to,
			}, testBaseURL)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !res.Pass.ValidFrom.Equal(tt.wantFrom) {
				t.Errorf("validFrom = %v, want %v", res.Pass.ValidFrom, tt.wantFrom)
			}
			if !res.Pass.ValidTo.Equal(tt.wantTo) {
				t.Errorf("validTo = %v, want %v", res.Pass.ValidTo, tt.wantTo)
			}
		})
	}
}

func TestCreate_PastValidToIsRetrievableAsExpired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, &model.CreatePassRequest{
		RequestID: "OLD-1",
		ValidTo:   testStart.Add(-time.Hour).Format(time.RFC3339),
	}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, expired, err := svc.Get(ctx, res.Pass.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !expired {
		t.Error("expected pass issued with past validTo to be expired")
	}
}

func TestCreate_SanitizesFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Create(context.Background(), &model.CreatePassRequest{
		RequestID:    "  R-42  ",
		VisitorName:  "  Ada    Lovelace ",
		VisitorEmail: " Ada@Example.COM ",
		VisitorPhone: "+1 650 253 0000",
		HostName:     "Grace\tHopper",
	}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p := res.Pass
	if p.RequestID != "R-42" || p.ID != "R-42" {
		t.Errorf("requestId = %q id = %q, want R-42", p.RequestID, p.ID)
	}
	if p.VisitorName != "Ada Lovelace" {
		t.Errorf("visitorName = %q", p.VisitorName)
	}
	if p.VisitorEmail != "ada@example.com" {
		t.Errorf("visitorEmail = %q", p.VisitorEmail)
	}
	if p.VisitorPhone != "+16502530000" {
		t.Errorf("visitorPhone = %q", p.VisitorPhone)
	}
	if p.HostName != "Grace Hopper" {
		t.Errorf("hostName = %q", p.HostName)
	}
}

func TestCreate_RequestIDPolicyOverwrites(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: "DUP", VisitorName: "First"}, testBaseURL); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: "DUP", VisitorName: "Second"}, testBaseURL); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if repo.Count() != 1 {
		t.Fatalf("store has %d entries, want 1", repo.Count())
	}
	pass, _, err := svc.Get(ctx, "DUP")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pass.VisitorName != "Second" {
		t.Errorf("visitorName = %q, want last write", pass.VisitorName)
	}
}

func TestCreate_TokenPolicy(t *testing.T) {
	keys, err := NewKeyGenerator(KeyPolicyToken)
	if err != nil {
		t.Fatalf("NewKeyGenerator: %v", err)
	}
	svc, repo, _ := newTestService(t, WithKeyGenerator(keys))
	ctx := context.Background()

	first, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: "DUP"}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: "DUP"}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if first.Pass.ID == "DUP" || first.Pass.ID == second.Pass.ID {
		t.Fatalf("expected distinct generated keys, got %q and %q", first.Pass.ID, second.Pass.ID)
	}
	if repo.Count() != 2 {
		t.Errorf("store has %d entries, want 2", repo.Count())
	}
	if !strings.HasSuffix(first.PassURL, "/pass/"+first.Pass.ID) {
		t.Errorf("passUrl %q does not end with key", first.PassURL)
	}

	pass, _, err := svc.Get(ctx, first.Pass.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pass.RequestID != "DUP" {
		t.Errorf("requestId = %q", pass.RequestID)
	}
}

func TestCreate_KeyFailureIsInternal(t *testing.T) {
	svc, repo, _ := newTestService(t, WithKeyGenerator(failingKeys{}))

	_, err := svc.Create(context.Background(), &model.CreatePassRequest{RequestID: "R1"}, testBaseURL)
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if repo.Count() != 0 {
		t.Errorf("store has %d entries, want 0", repo.Count())
	}
}

func TestCreate_CustomTTL(t *testing.T) {
	svc, _, _ := newTestService(t, WithPassTTL(2*time.Hour))

	res, err := svc.Create(context.Background(), &model.CreatePassRequest{RequestID: "R1"}, testBaseURL)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := testStart.Add(2 * time.Hour); !res.Pass.ValidTo.Equal(want) {
		t.Errorf("validTo = %v, want %v", res.Pass.ValidTo, want)
	}
}

func TestCreate_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _, _ := newTestService(t, WithPublisher(pub))

	if _, err := svc.Create(context.Background(), &model.CreatePassRequest{RequestID: "R1"}, testBaseURL); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(pub.created) != 1 || pub.created[0].ID != "R1" {
		t.Errorf("unexpected published passes: %+v", pub.created)
	}

	_, _ = svc.Create(context.Background(), &model.CreatePassRequest{}, testBaseURL)
	if len(pub.created) != 1 {
		t.Errorf("rejected request must not publish, got %d events", len(pub.created))
	}
}

// ────────────────────────────────────────────────
// Tests for Get()
// ────────────────────────────────────────────────

func TestGet_EmptyKey(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Get(context.Background(), "")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Get(context.Background(), "missing")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound || appErr.StatusCode() != 404 {
		t.Errorf("expected 404 NOT_FOUND, got %v", err)
	}
}

func TestGet_ExpiryBoundary(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	res, _ := svc.Create(ctx, &model.CreatePassRequest{RequestID: "EDGE"}, testBaseURL)

	clk.Set(res.Pass.ValidTo)
	if _, expired, _ := svc.Get(ctx, "EDGE"); expired {
		t.Error("pass must not be expired exactly at validTo")
	}

	clk.Set(res.Pass.ValidTo.Add(time.Nanosecond))
	if _, expired, _ := svc.Get(ctx, "EDGE"); !expired {
		t.Error("pass must be expired just after validTo")
	}
}

func TestCount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		if _, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: id}, testBaseURL); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if svc.Count() != 3 {
		t.Errorf("Count = %d, want 3", svc.Count())
	}
}

// ────────────────────────────────────────────────
// Tests for concurrency
// ────────────────────────────────────────────────

func TestCreate_ConcurrentWithSweep(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := "R" + string(rune('A'+i%26)) + string(rune('a'+i/26))
			if _, err := svc.Create(ctx, &model.CreatePassRequest{RequestID: id}, testBaseURL); err != nil {
				t.Errorf("Create: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			repo.Sweep(testStart, time.Hour)
		}()
	}
	wg.Wait()

	// Nothing is stale at testStart, so every insert must survive.
	if repo.Count() != 50 {
		t.Errorf("store has %d entries, want 50", repo.Count())
	}
}

func TestPassURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"http://localhost:3000", "TEST-001", "http://localhost:3000/pass/TEST-001"},
		{"https://passes.example.com/", "abc", "https://passes.example.com/pass/abc"},
		{"http://h", "with space", "http://h/pass/with%20space"},
	}
	for _, tt := range tests {
		if got := PassURL(tt.base, tt.key); got != tt.want {
			t.Errorf("PassURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

var _ events.Publisher = (*recordingPublisher)(nil)
