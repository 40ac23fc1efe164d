package models

import "proptoken/pkg/domain"

// AddPropertyRequest is what an owner supplies when offering a property.
// The id is assigned by the registry.
type AddPropertyRequest struct {
	TotalTokens                     uint64   `json:"total_tokens"`
	Metadata                        Metadata `json:"metadata"`
	TotalOfferedOwnershipPercentage uint8    `json:"total_offered_ownership_percentage"`
}

// Build turns the request into an unverified record carrying id.
func (r AddPropertyRequest) Build(id domain.PropertyID) PropertyDetails {
	return NewPropertyDetails(id, r.TotalTokens, r.Metadata, r.TotalOfferedOwnershipPercentage)
}
