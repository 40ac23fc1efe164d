//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformpg "proptoken/internal/platform/postgres"
	audit "proptoken/pkg/platform/audit"
	"proptoken/pkg/testutil/containers"
)

func TestStore_AppendAndList(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	db, err := platformpg.Open(ctx, pg.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := New(db)
	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, st.EnsureSchema(ctx), "schema creation is idempotent")

	propertyID := uint32(7)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	verified := audit.Event{
		ID:         uuid.New(),
		Category:   audit.CategoryCompliance,
		Timestamp:  base.Add(time.Minute),
		Action:     string(audit.EventPropertyVerified),
		Subject:    "owner-1",
		ActorID:    "admin",
		PropertyID: &propertyID,
		Decision:   "verified",
		RequestID:  "req-2",
	}
	registered := audit.Event{
		ID:        uuid.New(),
		Category:  audit.CategoryCompliance,
		Timestamp: base,
		Action:    string(audit.EventOwnerRegistered),
		Subject:   "owner-1",
		ActorID:   "owner-1",
		RequestID: "req-1",
	}

	require.NoError(t, st.Append(ctx, verified))
	require.NoError(t, st.Append(ctx, registered))
	require.NoError(t, st.Append(ctx, registered), "duplicate ids are ignored")
	require.NoError(t, st.Append(ctx, audit.Event{ID: uuid.New(), Subject: "owner-2", Action: "x", Timestamp: base}))

	events, err := st.ListBySubject(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, registered.ID, events[0].ID)
	assert.Nil(t, events[0].PropertyID)
	assert.Equal(t, verified.ID, events[1].ID)
	require.NotNil(t, events[1].PropertyID)
	assert.Equal(t, propertyID, *events[1].PropertyID)
	assert.Equal(t, "verified", events[1].Decision)
	assert.True(t, verified.Timestamp.Equal(events[1].Timestamp))
}
