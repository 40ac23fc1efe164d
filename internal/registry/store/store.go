// Package store holds the registry's owner-keyed property sequences.
package store

import (
	"errors"
	"fmt"

	"proptoken/pkg/platform/sentinel"
)

// ErrNoSuchOwner is returned when an owner has no sequence in the registry.
// It wraps sentinel.ErrNotFound so generic not-found handling still applies.
var ErrNoSuchOwner = fmt.Errorf("no such owner: %w", sentinel.ErrNotFound)

// ErrIDSpaceExhausted is returned by AppendNext once an owner has used the
// highest representable property id.
var ErrIDSpaceExhausted = errors.New("property id space exhausted for owner")

// FirstPropertyID is the id assigned to an owner's first store-numbered record.
const FirstPropertyID = 1
