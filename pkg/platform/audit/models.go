package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers registry state changes with legal weight:
	// owner registration, new offers, verification.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers denied privileged operations and token revocation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers everything else.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the registry service to capture key actions. It is
// transport-agnostic so stores and forwarders can fan out.
type Event struct {
	ID         uuid.UUID
	Category   EventCategory
	Timestamp  time.Time
	Action     string
	Subject    string // owner identity the action concerns (hex)
	ActorID    string // caller identity that performed the action (hex)
	PropertyID *uint32
	Decision   string
	Reason     string
	RequestID  string
}

type AuditEvent string

const (
	EventOwnerRegistered    AuditEvent = "owner_registered"
	EventPropertyAdded      AuditEvent = "property_added"
	EventPropertyVerified   AuditEvent = "property_verified"
	EventVerificationNoop   AuditEvent = "verification_noop"
	EventVerificationDenied AuditEvent = "verification_denied"
	EventCallerTokenRevoked AuditEvent = "caller_token_revoked"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventOwnerRegistered:    CategoryCompliance,
	EventPropertyAdded:      CategoryCompliance,
	EventPropertyVerified:   CategoryCompliance,
	EventVerificationDenied: CategorySecurity,
	EventCallerTokenRevoked: CategorySecurity,
	EventVerificationNoop:   CategoryOperations,
}

// Category returns the category for this action. Unknown actions default to
// CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Sink accepts events for persistence or forwarding.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can also answer queries.
type Store interface {
	Sink
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
