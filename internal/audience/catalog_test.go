package audience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, o := range All() {
		assert.False(t, seen[o.ID], o.ID)
		seen[o.ID] = true
		assert.NotEmpty(t, o.Label)
		assert.NotEmpty(t, o.Category)
	}
	assert.Len(t, seen, 19)
}

func TestByCategory(t *testing.T) {
	groups := ByCategory()
	require.Len(t, groups, 3)
	assert.Equal(t, "construction_workers", groups[CategoryProfessions][0].ID)
	assert.Len(t, groups[CategoryInterests], 4)
}

func TestGetAndDescribe(t *testing.T) {
	o, ok := Get(" Construction_Workers ")
	require.True(t, ok)
	assert.Equal(t, "Construction Workers", o.Label)

	assert.Equal(t, "Construction Workers: Skilled tradespeople in construction industry", Describe("construction_workers"))
	assert.Equal(t, "busy parents", Describe("  busy parents "))
}

func TestAllReturnsCopies(t *testing.T) {
	a := All()
	a[0].Interests[0] = "mutated"
	assert.NotEqual(t, "mutated", All()[0].Interests[0])
}
