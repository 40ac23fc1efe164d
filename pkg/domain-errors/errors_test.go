package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("cause")

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("keeps cause reachable", func(t *testing.T) {
		err := Wrap(errCause, CodeNotFound, "owner not found")
		require.Error(t, err)
		assert.ErrorIs(t, err, errCause)
		assert.Equal(t, "owner not found: cause", err.Error())
	})
}

func TestHasCode(t *testing.T) {
	inner := Wrap(errCause, CodeNotFound, "inner")
	outer := Wrap(inner, CodeInternal, "outer")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound), "codes deeper in the chain are visible")
	assert.False(t, HasCode(outer, CodeForbidden))
	assert.False(t, HasCode(errCause, CodeInternal))
	assert.True(t, Is(fmt.Errorf("annotated: %w", inner), CodeNotFound))
}

func TestCodeAndMessageOf(t *testing.T) {
	err := New(CodeForbidden, "admin only")
	assert.Equal(t, CodeForbidden, CodeOf(err))
	assert.Equal(t, "admin only", MessageOf(err))

	assert.Equal(t, CodeInternal, CodeOf(errCause))
	assert.Equal(t, "internal server error", MessageOf(errCause))
}
