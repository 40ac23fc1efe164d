package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "proptoken/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store. Call EnsureSchema once at startup.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	action      TEXT NOT NULL,
	subject     TEXT NOT NULL,
	actor_id    TEXT NOT NULL DEFAULT '',
	property_id BIGINT,
	decision    TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject, occurred_at);
`

// EnsureSchema creates the audit table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Append inserts an event. Re-inserting the same event id is ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var propertyID sql.NullInt64
	if event.PropertyID != nil {
		propertyID = sql.NullInt64{Int64: int64(*event.PropertyID), Valid: true}
	}
	query := `
		INSERT INTO audit_events (
			id, category, action, subject, actor_id, property_id, decision, reason, request_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Action,
		event.Subject,
		event.ActorID,
		propertyID,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events about subject, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT id, category, action, subject, actor_id, property_id, decision, reason, request_id, occurred_at
		FROM audit_events
		WHERE subject = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e          audit.Event
			category   string
			propertyID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &category, &e.Action, &e.Subject, &e.ActorID, &propertyID,
			&e.Decision, &e.Reason, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if propertyID.Valid {
			id := uint32(propertyID.Int64)
			e.PropertyID = &id
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
