package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptoken/pkg/domain"
)

func randomIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := domain.NewRandomIdentity()
	require.NoError(t, err)
	return id
}

func TestAuthorize(t *testing.T) {
	admin := randomIdentity(t)

	t.Run("admin is authorized", func(t *testing.T) {
		assert.NoError(t, Authorize(admin, admin))
	})

	t.Run("any other identity is rejected", func(t *testing.T) {
		for range 50 {
			other := randomIdentity(t)
			assert.ErrorIs(t, Authorize(other, admin), ErrUnauthorized)
		}
	})

	t.Run("identity differing in one byte is rejected", func(t *testing.T) {
		near := admin
		near[domain.IdentityLength-1] ^= 0x01
		assert.ErrorIs(t, Authorize(near, admin), ErrUnauthorized)
	})

	t.Run("zero caller is rejected", func(t *testing.T) {
		assert.ErrorIs(t, Authorize(domain.Identity{}, admin), ErrUnauthorized)
		assert.ErrorIs(t, Authorize(domain.Identity{}, domain.Identity{}), ErrUnauthorized)
	})
}
