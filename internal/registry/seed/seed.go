// Package seed bootstraps the registry from a YAML file at startup.
//
//	owners:
//	  - owner: 0x8eaf0415...26a48
//	    properties:
//	      - property_id: 7
//	        total_tokens: 10000
//	        total_offered_ownership_percentage: 40
//	        metadata:
//	          address: 12 Harbour Road
//	          area_offered: 120
//	          total_area: 480
//	          description: two storey townhouse
//
// Owners are registered and their records appended exactly as written,
// including ids and the verified flag.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"proptoken/internal/registry/models"
	"proptoken/pkg/domain"
)

// File is the root of a seed document.
type File struct {
	Owners []Owner `yaml:"owners"`
}

// Owner is one registry entry to create.
type Owner struct {
	Owner      domain.Identity          `yaml:"owner"`
	Properties []models.PropertyDetails `yaml:"properties"`
}

// Store is what seeding writes through.
type Store interface {
	Register(ctx context.Context, owner domain.Identity) error
	Append(ctx context.Context, owner domain.Identity, record models.PropertyDetails) error
}

// Summary reports what Apply wrote.
type Summary struct {
	Owners     int
	Properties int
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a seed document. Unknown keys are rejected so typos surface
// at startup rather than as silently missing data.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	seen := make(map[domain.Identity]struct{}, len(f.Owners))
	for i, o := range f.Owners {
		if o.Owner.IsZero() {
			return nil, fmt.Errorf("parsing seed file: owners[%d]: owner is required", i)
		}
		if _, dup := seen[o.Owner]; dup {
			return nil, fmt.Errorf("parsing seed file: owners[%d]: duplicate owner %s", i, o.Owner)
		}
		seen[o.Owner] = struct{}{}
	}
	return &f, nil
}

// Apply registers every owner and appends their records in file order.
func (f *File) Apply(ctx context.Context, st Store) (Summary, error) {
	var sum Summary
	for _, o := range f.Owners {
		if err := st.Register(ctx, o.Owner); err != nil {
			return sum, fmt.Errorf("seeding owner %s: %w", o.Owner.Short(), err)
		}
		sum.Owners++
		for _, record := range o.Properties {
			if err := st.Append(ctx, o.Owner, record); err != nil {
				return sum, fmt.Errorf("seeding property %d for %s: %w", record.PropertyID, o.Owner.Short(), err)
			}
			sum.Properties++
		}
	}
	return sum, nil
}
