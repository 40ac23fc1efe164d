package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptoken/internal/registry/models"
	"proptoken/internal/registry/store"
	"proptoken/pkg/domain"
	"proptoken/pkg/platform/sentinel"
)

const seedYAML = `
owners:
  - owner: 0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48
    properties:
      - property_id: 3
        total_tokens: 500
        total_offered_ownership_percentage: 0
        metadata:
          address: 1 Quay Street
          area_offered: 10
          total_area: 100
          description: loft
      - property_id: 7
        total_tokens: 10000
        total_offered_ownership_percentage: 40
        is_verified: true
        metadata:
          address: 12 Harbour Road
          area_offered: 120
          total_area: 480
          description: two storey townhouse
  - owner: d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d
`

var seededOwner = domain.MustParseIdentity("8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

func TestParseAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Owners, 2)

	st := store.NewInMemory()
	sum, err := f.Apply(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, Summary{Owners: 2, Properties: 2}, sum)

	records, ok, err := st.Lookup(context.Background(), seededOwner)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, models.PropertyDetails{
		PropertyID:  7,
		TotalTokens: 10000,
		Metadata: models.Metadata{
			Address:     "12 Harbour Road",
			AreaOffered: 120,
			TotalArea:   480,
			Description: "two storey townhouse",
		},
		TotalOfferedOwnershipPercentage: 40,
		IsVerified:                      true,
	}, records[1])

	t.Run("store continues numbering past seeded ids", func(t *testing.T) {
		created, err := st.AppendNext(context.Background(), seededOwner, func(id domain.PropertyID) models.PropertyDetails {
			return models.NewPropertyDetails(id, 1, models.Metadata{}, 1)
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PropertyID(8), created.PropertyID)
	})

	t.Run("applying twice conflicts", func(t *testing.T) {
		_, err := f.Apply(context.Background(), st)
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "owners:\n  - owner: 8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48\n    propertys: []\n",
		"bad identity":    "owners:\n  - owner: not-hex\n",
		"missing owner":   "owners:\n  - properties: []\n",
		"duplicate owner": "owners:\n  - owner: 8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48\n  - owner: 0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Owners)
}
