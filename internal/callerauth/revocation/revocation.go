// Package revocation tracks caller tokens that must no longer be accepted.
package revocation

import (
	"errors"
	"time"
)

// ErrInvalidTTL is returned when a revocation would never expire or already has.
var ErrInvalidTTL = errors.New("revocation ttl must be positive")

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
