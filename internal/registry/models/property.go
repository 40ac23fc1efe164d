package models

import "proptoken/pkg/domain"

// Metadata describes the physical asset behind a tokenization offer.
//
// AreaOffered is expected to be at most TotalArea. The registry records what
// the owner supplied and does not enforce it.
type Metadata struct {
	Address     string `json:"address" yaml:"address"`
	AreaOffered uint32 `json:"area_offered" yaml:"area_offered"`
	TotalArea   uint32 `json:"total_area" yaml:"total_area"`
	Description string `json:"description" yaml:"description"`
}

// PropertyDetails is one tokenization offer held in an owner's sequence.
//
// Invariants:
//   - PropertyID is unique within the owning sequence only
//   - TotalOfferedOwnershipPercentage is semantically 0-100 but never range checked
//   - IsVerified only ever moves from false to true (see Verify)
//
// Records are immutable once appended except for the verification flag.
type PropertyDetails struct {
	PropertyID                      domain.PropertyID `json:"property_id" yaml:"property_id"`
	TotalTokens                     uint64            `json:"total_tokens" yaml:"total_tokens"`
	Metadata                        Metadata          `json:"metadata" yaml:"metadata"`
	TotalOfferedOwnershipPercentage uint8             `json:"total_offered_ownership_percentage" yaml:"total_offered_ownership_percentage"`
	IsVerified                      bool              `json:"is_verified" yaml:"is_verified"`
}

// NewPropertyDetails builds an unverified record.
func NewPropertyDetails(id domain.PropertyID, totalTokens uint64, metadata Metadata, offeredPercentage uint8) PropertyDetails {
	return PropertyDetails{
		PropertyID:                      id,
		TotalTokens:                     totalTokens,
		Metadata:                        metadata,
		TotalOfferedOwnershipPercentage: offeredPercentage,
	}
}

// State reports the verification lifecycle state.
func (p *PropertyDetails) State() VerificationState {
	if p.IsVerified {
		return StateVerified
	}
	return StateUnverified
}

// Verify applies the only lifecycle edge, Unverified -> Verified. It reports
// whether the record changed; verifying a verified record is a no-op.
func (p *PropertyDetails) Verify() bool {
	if !p.State().CanTransitionTo(StateVerified) {
		return false
	}
	p.IsVerified = true
	return true
}

// HasID is the predicate used to select a record inside a sequence.
func HasID(id domain.PropertyID) func(*PropertyDetails) bool {
	return func(p *PropertyDetails) bool {
		return p.PropertyID == id
	}
}

// CloneSequence copies a sequence so callers never alias stored records.
// PropertyDetails holds no pointers, so a slice copy is a deep copy.
func CloneSequence(records []PropertyDetails) []PropertyDetails {
	if records == nil {
		return nil
	}
	out := make([]PropertyDetails, len(records))
	copy(out, records)
	return out
}
