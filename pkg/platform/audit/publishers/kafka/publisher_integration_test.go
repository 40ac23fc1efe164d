//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "proptoken/pkg/platform/audit"
	"proptoken/pkg/testutil/containers"
)

func TestPublisher_ProducesKeyedRecords(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "proptoken.audit.test"
	pub, err := New([]string{rp.Broker}, topic)
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	require.NoError(t, pub.EnsureTopic(ctx, 1, 1))
	require.NoError(t, pub.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	propertyID := uint32(7)
	event := audit.Event{
		ID:         uuid.New(),
		Category:   audit.CategoryCompliance,
		Timestamp:  time.Now(),
		Action:     string(audit.EventPropertyVerified),
		Subject:    "owner-1",
		ActorID:    "admin",
		PropertyID: &propertyID,
		Decision:   "verified",
	}
	require.NoError(t, pub.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "owner-1", string(record.Key))
	require.Len(t, record.Headers, 1)
	assert.Equal(t, "compliance", string(record.Headers[0].Value))

	var got payload
	require.NoError(t, json.Unmarshal(record.Value, &got))
	assert.Equal(t, event.ID.String(), got.ID)
	assert.Equal(t, event.Action, got.Action)
	require.NotNil(t, got.PropertyID)
	assert.Equal(t, propertyID, *got.PropertyID)
}
