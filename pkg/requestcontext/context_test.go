package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptoken/pkg/domain"
)

func TestAccessorsDefaults(t *testing.T) {
	ctx := context.Background()

	assert.True(t, Caller(ctx).IsZero())
	assert.Empty(t, TokenID(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	caller, err := domain.NewRandomIdentity()
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ctx := WithCaller(context.Background(), caller)
	ctx = WithTokenID(ctx, "jti-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, caller, Caller(ctx))
	assert.Equal(t, "jti-1", TokenID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
