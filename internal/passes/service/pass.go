package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"visitorpass/internal/passes/events"
	"visitorpass/internal/passes/expiry"
	passeserrors "visitorpass/internal/passes/errors"
	"visitorpass/internal/passes/repository"
	"visitorpass/internal/passes/validator"
	"visitorpass/pkg/clock"
	apperrors "visitorpass/pkg/errors"
	"visitorpass/pkg/logger"
	"visitorpass/pkg/model"
	"visitorpass/pkg/sanitizer"
)

type PassService interface {
	Create(ctx context.Context, req *model.CreatePassRequest, baseURL string) (*CreateResult, error)
	Get(ctx context.Context, key string) (model.Pass, bool, error)
	Count() int
}

// CreateResult is a stored pass together with the URL of its ticket page.
type CreateResult struct {
	Pass    model.Pass
	PassURL string
}

type Option func(*passService)

func WithClock(c clock.Clock) Option {
	return func(s *passService) { s.clock = c }
}

// WithPassTTL sets the validity used when a request omits validTo.
func WithPassTTL(ttl time.Duration) Option {
	return func(s *passService) { s.ttl = ttl }
}

func WithKeyGenerator(g KeyGenerator) Option {
	return func(s *passService) { s.keys = g }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *passService) { s.publisher = p }
}

type passService struct {
	repo      repository.PassRepository
	validator *validator.PassValidator
	log       *logger.Logger

	clock     clock.Clock
	ttl       time.Duration
	keys      KeyGenerator
	publisher events.Publisher
}

func NewPassService(
	repo repository.PassRepository,
	validator *validator.PassValidator,
	log *logger.Logger,
	opts ...Option,
) PassService {
	s := &passService{
		repo:      repo,
		validator: validator,
		log:       log,
		clock:     clock.NewSystem(),
		ttl:       expiry.DefaultTTL,
		keys:      requestIDKeys{},
		publisher: events.NewNoopPublisher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *passService) Create(ctx context.Context, req *model.CreatePassRequest, baseURL string) (*CreateResult, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("requestId is required")
	}
	s.sanitize(req)

	if err := s.validator.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.log.Warn("Pass request validation failed",
				"request_id", req.RequestID,
				"error", err,
			)
			return nil, apperrors.InvalidInput(verrs.First()).WithDetails(map[string]any{
				"errors": verrs,
			})
		}
		return nil, apperrors.Internal("Failed to validate pass request", err)
	}

	now := s.clock.Now()
	validFrom, validTo, err := s.window(now, req.ValidFrom, req.ValidTo)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	key, err := s.keys.Key(req.RequestID, now)
	if err != nil {
		s.log.Error("Failed to generate pass key", "request_id", req.RequestID, "error", err)
		return nil, apperrors.Internal("Failed to create visitor pass", err)
	}

	pass := model.Pass{
		ID:           key,
		RequestID:    req.RequestID,
		VisitorName:  req.VisitorName,
		VisitorEmail: req.VisitorEmail,
		VisitorPhone: req.VisitorPhone,
		HostName:     req.HostName,
		Location:     req.Location,
		Purpose:      req.Purpose,
		CreatedAt:    now,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		Status:       status(now, validTo),
	}
	s.repo.Insert(key, pass)

	s.log.Info("Visitor pass created",
		"request_id", pass.RequestID,
		"key", key,
		"valid_from", pass.ValidFrom,
		"expires_at", pass.ValidTo,
	)
	s.publisher.PassCreated(ctx, pass)

	return &CreateResult{
		Pass:    pass,
		PassURL: PassURL(baseURL, key),
	}, nil
}

func (s *passService) Get(ctx context.Context, key string) (model.Pass, bool, error) {
	if strings.TrimSpace(key) == "" {
		return model.Pass{}, false, apperrors.InvalidInput(passeserrors.ErrEmptyKey.Error())
	}

	pass, ok := s.repo.Lookup(key)
	if !ok {
		s.log.Debug("Pass lookup missed", "key", key)
		return model.Pass{}, false, apperrors.Wrap(passeserrors.ErrNotFound, apperrors.CodeNotFound,
			"Pass not found or has expired", http.StatusNotFound)
	}

	now := s.clock.Now()
	expired := expiry.IsExpired(now, pass.ValidTo)
	pass.Status = status(now, pass.ValidTo)
	return pass, expired, nil
}

func (s *passService) Count() int {
	return s.repo.Count()
}

func (s *passService) sanitize(req *model.CreatePassRequest) {
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.VisitorName = sanitizer.NormalizeText(req.VisitorName)
	req.VisitorEmail = sanitizer.NormalizeEmail(req.VisitorEmail)
	req.VisitorPhone = sanitizer.NormalizePhone(req.VisitorPhone)
	req.HostName = sanitizer.NormalizeText(req.HostName)
	req.Location = sanitizer.NormalizeText(req.Location)
	req.Purpose = sanitizer.NormalizeText(req.Purpose)
	req.ValidFrom = strings.TrimSpace(req.ValidFrom)
	req.ValidTo = strings.TrimSpace(req.ValidTo)
}

// window resolves the validity window. A missing validFrom is the creation
// time and a missing validTo is validFrom plus the TTL. Supplied bounds are
// kept as given, so a pass may be issued already expired.
func (s *passService) window(now time.Time, fromStr, toStr string) (time.Time, time.Time, error) {
	validFrom, validTo := expiry.DefaultWindow(now, s.ttl)

	if fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: validFrom must be an RFC 3339 timestamp", passeserrors.ErrInvalidWindow)
		}
		validFrom = t.UTC()
		_, validTo = expiry.DefaultWindow(validFrom, s.ttl)
	}

	if toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: validTo must be an RFC 3339 timestamp", passeserrors.ErrInvalidWindow)
		}
		validTo = t.UTC()
		if fromStr != "" && validTo.Before(validFrom) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: validTo must not be before validFrom", passeserrors.ErrInvalidWindow)
		}
	}

	return validFrom, validTo, nil
}

func status(now, validTo time.Time) model.PassStatus {
	if expiry.IsExpired(now, validTo) {
		return model.PassStatusExpired
	}
	return model.PassStatusActive
}

// PassURL joins the public base URL and the ticket path for key.
func PassURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/pass/" + url.PathEscape(key)
}
