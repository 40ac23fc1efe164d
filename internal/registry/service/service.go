// Package service implements the property registry operations: owner
// registration, adding properties, and admin-gated verification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"proptoken/internal/platform/metrics"
	"proptoken/internal/registry/access"
	"proptoken/internal/registry/models"
	"proptoken/internal/registry/store"
	"proptoken/pkg/domain"
	dErrors "proptoken/pkg/domain-errors"
	"proptoken/pkg/platform/audit"
	"proptoken/pkg/platform/sentinel"
	"proptoken/pkg/requestcontext"
)

// Re-exported so callers can errors.Is without importing the leaf packages.
var (
	ErrUnauthorized = access.ErrUnauthorized
	ErrNoSuchOwner  = store.ErrNoSuchOwner
)

const tracerName = "proptoken/internal/registry/service"

// Store is the owner-keyed sequence storage the registry runs on. Every
// mutating method must apply its read-modify-write atomically.
type Store interface {
	Register(ctx context.Context, owner domain.Identity) error
	Lookup(ctx context.Context, owner domain.Identity) ([]models.PropertyDetails, bool, error)
	AppendNext(ctx context.Context, owner domain.Identity, build func(domain.PropertyID) models.PropertyDetails) (models.PropertyDetails, error)
	UpdateMatching(ctx context.Context, owner domain.Identity, match func(*models.PropertyDetails) bool, mutate func(*models.PropertyDetails)) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is one registry instance. The admin is fixed at construction.
type Service struct {
	admin          domain.Identity
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New creates a registry administered by admin.
func New(admin domain.Identity, st Store, opts ...Option) (*Service, error) {
	if admin.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "registry admin is required")
	}
	if isNil(st) {
		return nil, errors.New("registry store is required")
	}
	s := &Service{
		admin:  admin,
		store:  st,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetAdmin returns the identity allowed to verify properties.
func (s *Service) GetAdmin() domain.Identity {
	return s.admin
}

// RegisterOwner creates an empty property sequence for the caller. It is the
// first half of the two-phase flow: register once, then add properties.
func (s *Service) RegisterOwner(ctx context.Context) error {
	start := time.Now()
	defer s.observe("register_owner", start)

	caller := requestcontext.Caller(ctx)
	ctx, span := s.tracer.Start(ctx, "registry.RegisterOwner",
		trace.WithAttributes(attribute.String("owner", caller.String())))
	defer span.End()

	if caller.IsZero() {
		return s.fail(span, errMissingCaller())
	}

	if err := s.store.Register(ctx, caller); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return s.fail(span, dErrors.Wrap(err, dErrors.CodeConflict, "owner is already registered"))
		}
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register owner"))
	}

	s.logAudit(ctx, audit.Event{
		Action:  string(audit.EventOwnerRegistered),
		Subject: caller.String(),
		ActorID: caller.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementOwnersRegistered()
	}
	return nil
}

// AddProperty appends a new unverified record to the caller's sequence. The
// caller must already be registered; the registry assigns the id.
func (s *Service) AddProperty(ctx context.Context, req models.AddPropertyRequest) (*models.PropertyDetails, error) {
	start := time.Now()
	defer s.observe("add_property", start)

	caller := requestcontext.Caller(ctx)
	ctx, span := s.tracer.Start(ctx, "registry.AddProperty",
		trace.WithAttributes(attribute.String("owner", caller.String())))
	defer span.End()

	if caller.IsZero() {
		return nil, s.fail(span, errMissingCaller())
	}

	created, err := s.store.AppendNext(ctx, caller, req.Build)
	if err != nil {
		return nil, s.fail(span, translateStoreError(err, "failed to add property"))
	}
	span.SetAttributes(attribute.Int64("property_id", int64(created.PropertyID)))

	id := uint32(created.PropertyID)
	s.logAudit(ctx, audit.Event{
		Action:     string(audit.EventPropertyAdded),
		Subject:    caller.String(),
		ActorID:    caller.String(),
		PropertyID: &id,
	})
	if s.metrics != nil {
		s.metrics.IncrementPropertiesAdded()
	}
	return &created, nil
}

// VerifyProperty marks owner's property id as verified. Only the admin may
// call it. An id the owner does not hold is a silent no-op, and verifying an
// already verified property changes nothing.
func (s *Service) VerifyProperty(ctx context.Context, owner domain.Identity, propertyID domain.PropertyID) error {
	start := time.Now()
	defer s.observe("verify_property", start)

	caller := requestcontext.Caller(ctx)
	ctx, span := s.tracer.Start(ctx, "registry.VerifyProperty",
		trace.WithAttributes(
			attribute.String("owner", owner.String()),
			attribute.Int64("property_id", int64(propertyID)),
		))
	defer span.End()

	id := uint32(propertyID)
	if err := access.Authorize(caller, s.admin); err != nil {
		s.recordVerification(metrics.OutcomeUnauthorized)
		s.logAudit(ctx, audit.Event{
			Action:     string(audit.EventVerificationDenied),
			Subject:    owner.String(),
			ActorID:    caller.String(),
			PropertyID: &id,
			Decision:   "denied",
			Reason:     "caller is not the registry admin",
		})
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeForbidden, "caller is not the registry admin"))
	}

	flipped := false
	matched, err := s.store.UpdateMatching(ctx, owner, models.HasID(propertyID), func(p *models.PropertyDetails) {
		if p.Verify() {
			flipped = true
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrNoSuchOwner) {
			s.recordVerification(metrics.OutcomeNoSuchOwner)
		}
		return s.fail(span, translateStoreError(err, "failed to verify property"))
	}

	if !flipped {
		reason := "property already verified"
		if matched == 0 {
			reason = "owner holds no property with this id"
		}
		s.recordVerification(metrics.OutcomeNoop)
		s.logAudit(ctx, audit.Event{
			Action:     string(audit.EventVerificationNoop),
			Subject:    owner.String(),
			ActorID:    caller.String(),
			PropertyID: &id,
			Decision:   "noop",
			Reason:     reason,
		})
		return nil
	}

	s.recordVerification(metrics.OutcomeVerified)
	s.logAudit(ctx, audit.Event{
		Action:     string(audit.EventPropertyVerified),
		Subject:    owner.String(),
		ActorID:    caller.String(),
		PropertyID: &id,
		Decision:   "verified",
	})
	return nil
}

// ListProperties returns a copy of owner's sequence in append order.
func (s *Service) ListProperties(ctx context.Context, owner domain.Identity) ([]models.PropertyDetails, error) {
	start := time.Now()
	defer s.observe("list_properties", start)

	ctx, span := s.tracer.Start(ctx, "registry.ListProperties",
		trace.WithAttributes(attribute.String("owner", owner.String())))
	defer span.End()

	records, ok, err := s.store.Lookup(ctx, owner)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load properties"))
	}
	if !ok {
		return nil, s.fail(span, translateStoreError(store.ErrNoSuchOwner, ""))
	}
	if records == nil {
		records = []models.PropertyDetails{}
	}
	return records, nil
}

// isNil also catches a nil pointer wrapped in the Store interface.
func isNil(st Store) bool {
	if st == nil {
		return true
	}
	v := reflect.ValueOf(st)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func errMissingCaller() error {
	return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
}

func translateStoreError(err error, internalMsg string) error {
	switch {
	case errors.Is(err, store.ErrNoSuchOwner):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "owner is not registered")
	case errors.Is(err, store.ErrIDSpaceExhausted):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "no property ids left for owner")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, dErrors.MessageOf(err))
	return err
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

func (s *Service) recordVerification(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordVerification(outcome)
	}
}

// logAudit logs event and hands it to the audit publisher. Publishing
// failures are logged and never fail the operation.
func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)
	if s.logger != nil {
		args := []any{
			"event", event.Action,
			"log_type", "audit",
			"owner", event.Subject,
			"actor", event.ActorID,
		}
		if event.PropertyID != nil {
			args = append(args, "property_id", *event.PropertyID)
		}
		if event.Reason != "" {
			args = append(args, "reason", event.Reason)
		}
		if event.RequestID != "" {
			args = append(args, "request_id", event.RequestID)
		}
		s.logger.InfoContext(ctx, event.Action, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"event", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}
}
