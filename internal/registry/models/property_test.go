package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetadata() Metadata {
	return Metadata{
		Address:     "12 Harbour Road",
		AreaOffered: 40,
		TotalArea:   120,
		Description: "two storey townhouse",
	}
}

func TestNewPropertyDetails(t *testing.T) {
	p := NewPropertyDetails(7, 1_000_000, sampleMetadata(), 35)

	assert.Equal(t, StateUnverified, p.State())
	assert.False(t, p.IsVerified)
	assert.EqualValues(t, 7, p.PropertyID)
	assert.EqualValues(t, 1_000_000, p.TotalTokens)
	assert.EqualValues(t, 35, p.TotalOfferedOwnershipPercentage)
	assert.Equal(t, sampleMetadata(), p.Metadata)
}

// Percentage and area relations are recorded as supplied.
func TestNewPropertyDetails_Permissive(t *testing.T) {
	for _, pct := range []uint8{0, 100, 101, 255} {
		p := NewPropertyDetails(1, 10, sampleMetadata(), pct)
		assert.Equal(t, pct, p.TotalOfferedOwnershipPercentage)
	}

	md := sampleMetadata()
	md.AreaOffered = md.TotalArea + 1
	p := NewPropertyDetails(1, 10, md, 50)
	assert.Greater(t, p.Metadata.AreaOffered, p.Metadata.TotalArea)
}

func TestVerify(t *testing.T) {
	t.Run("unverified record becomes verified", func(t *testing.T) {
		p := NewPropertyDetails(1, 10, sampleMetadata(), 10)
		require.True(t, p.Verify())
		assert.True(t, p.IsVerified)
		assert.Equal(t, StateVerified, p.State())
	})

	t.Run("verifying twice is a no-op", func(t *testing.T) {
		p := NewPropertyDetails(1, 10, sampleMetadata(), 10)
		require.True(t, p.Verify())
		assert.False(t, p.Verify())
		assert.True(t, p.IsVerified)
	})
}

func TestVerificationState_Transitions(t *testing.T) {
	assert.True(t, StateUnverified.CanTransitionTo(StateVerified))
	assert.False(t, StateVerified.CanTransitionTo(StateUnverified))
	assert.False(t, StateVerified.CanTransitionTo(StateVerified))
	assert.False(t, StateUnverified.CanTransitionTo(StateUnverified))
}

func TestCloneSequence(t *testing.T) {
	assert.Nil(t, CloneSequence(nil))

	original := []PropertyDetails{NewPropertyDetails(1, 10, sampleMetadata(), 10)}
	clone := CloneSequence(original)
	clone[0].Verify()

	assert.False(t, original[0].IsVerified, "clone must not alias the original")
}

func TestHasID(t *testing.T) {
	p := NewPropertyDetails(9, 10, sampleMetadata(), 10)
	assert.True(t, HasID(9)(&p))
	assert.False(t, HasID(10)(&p))
}
