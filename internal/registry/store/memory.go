package store

import (
	"bytes"
	"context"
	"math"
	"slices"
	"sync"

	"proptoken/internal/registry/models"
	"proptoken/pkg/domain"
	"proptoken/pkg/platform/sentinel"
)

// InMemory is the registry's keyed store: owner identity -> ordered sequence
// of that owner's records.
//
// Every mutation goes through Execute, which fetches one owner's whole
// sequence, hands a private copy to the caller's function and writes the
// result back, all under the registry lock. Readers see either the sequence
// before or after a mutation, never a half-applied one.
type InMemory struct {
	mu     sync.RWMutex
	owners map[domain.Identity][]models.PropertyDetails
	// nextID is the per-owner id counter. It only ever grows; it is wider
	// than PropertyID so exhaustion is detectable instead of wrapping.
	nextID map[domain.Identity]uint64
}

// NewInMemory creates an empty registry store.
func NewInMemory() *InMemory {
	return &InMemory{
		owners: make(map[domain.Identity][]models.PropertyDetails),
		nextID: make(map[domain.Identity]uint64),
	}
}

// Register creates an empty sequence for owner. Registering twice returns
// sentinel.ErrAlreadyUsed and leaves the existing sequence untouched.
func (s *InMemory) Register(_ context.Context, owner domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[owner]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.owners[owner] = []models.PropertyDetails{}
	s.nextID[owner] = FirstPropertyID
	return nil
}

// Lookup returns a copy of owner's sequence. A missing owner is reported with
// ok=false, not an error.
func (s *InMemory) Lookup(_ context.Context, owner domain.Identity) ([]models.PropertyDetails, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.owners[owner]
	if !ok {
		return nil, false, nil
	}
	return models.CloneSequence(records), true, nil
}

// Execute runs fn against a copy of owner's sequence and persists what fn
// returns. If fn fails nothing is written. Returns ErrNoSuchOwner when owner
// has no sequence.
func (s *InMemory) Execute(_ context.Context, owner domain.Identity, fn func([]models.PropertyDetails) ([]models.PropertyDetails, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(owner, fn)
}

func (s *InMemory) executeLocked(owner domain.Identity, fn func([]models.PropertyDetails) ([]models.PropertyDetails, error)) error {
	records, ok := s.owners[owner]
	if !ok {
		return ErrNoSuchOwner
	}
	updated, err := fn(models.CloneSequence(records))
	if err != nil {
		return err
	}
	s.owners[owner] = updated
	for _, r := range updated {
		if next := uint64(r.PropertyID) + 1; next > s.nextID[owner] {
			s.nextID[owner] = next
		}
	}
	return nil
}

// Append adds record to the end of owner's sequence exactly as supplied.
// Owners must be registered first.
func (s *InMemory) Append(ctx context.Context, owner domain.Identity, record models.PropertyDetails) error {
	return s.Execute(ctx, owner, func(records []models.PropertyDetails) ([]models.PropertyDetails, error) {
		return append(records, record), nil
	})
}

// AppendNext assigns the owner's next property id, builds the record with it
// and appends, all as one atomic unit. Ids are never reused: the counter
// tracks the highest id ever stored for the owner.
func (s *InMemory) AppendNext(_ context.Context, owner domain.Identity, build func(domain.PropertyID) models.PropertyDetails) (models.PropertyDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created models.PropertyDetails
	err := s.executeLocked(owner, func(records []models.PropertyDetails) ([]models.PropertyDetails, error) {
		next := s.nextID[owner]
		if next > math.MaxUint32 {
			return nil, ErrIDSpaceExhausted
		}
		created = build(domain.PropertyID(next))
		return append(records, created), nil
	})
	if err != nil {
		return models.PropertyDetails{}, err
	}
	return created, nil
}

// UpdateMatching applies mutate to every record in owner's sequence that
// satisfies match and reports how many matched. A present owner with no
// matching record succeeds with zero matches and no write-visible change.
func (s *InMemory) UpdateMatching(ctx context.Context, owner domain.Identity, match func(*models.PropertyDetails) bool, mutate func(*models.PropertyDetails)) (int, error) {
	matched := 0
	err := s.Execute(ctx, owner, func(records []models.PropertyDetails) ([]models.PropertyDetails, error) {
		for i := range records {
			if match(&records[i]) {
				mutate(&records[i])
				matched++
			}
		}
		return records, nil
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

// Owners returns every registered owner in a stable order.
func (s *InMemory) Owners(_ context.Context) ([]domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.owners))
	for owner := range s.owners {
		out = append(out, owner)
	}
	slices.SortFunc(out, func(a, b domain.Identity) int {
		return bytes.Compare(a[:], b[:])
	})
	return out, nil
}
