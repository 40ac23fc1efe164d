// Package access decides whether a caller may perform privileged registry
// operations.
package access

import (
	"crypto/subtle"
	"errors"

	"proptoken/pkg/domain"
)

// ErrUnauthorized is returned when the caller is not the configured admin.
var ErrUnauthorized = errors.New("caller is not the registry admin")

// Authorize succeeds iff caller equals admin. An unset caller never matches,
// even against an unset admin.
func Authorize(caller, admin domain.Identity) error {
	if caller.IsZero() {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(caller[:], admin[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}
