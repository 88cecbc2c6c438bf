package hashing_test

import (
	"testing"

	"github.com/chaintrack/backend/internal/hashing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	fields := hashing.ProductFields{
		Name:         "Widget",
		Manufacturer: "Acme",
		Origin:       "USA",
		Description:  "A widget",
	}

	t.Run("deterministic across field orderings", func(t *testing.T) {
		// given two maps with the same entries inserted in different orders
		a := map[string]string{}
		a["name"] = "Widget"
		a["manufacturer"] = "Acme"
		a["origin"] = "USA"
		a["description"] = "A widget"

		b := map[string]string{}
		b["description"] = "A widget"
		b["origin"] = "USA"
		b["manufacturer"] = "Acme"
		b["name"] = "Widget"

		// when
		hashA := hashing.ComputeHashFromMap(a)
		hashB := hashing.ComputeHashFromMap(b)

		// then
		assert.Equal(t, hashA, hashB)
		assert.Equal(t, hashA, hashing.ComputeHash(fields))
	})

	t.Run("0x-prefixed 32-byte digest", func(t *testing.T) {
		hash := hashing.ComputeHash(fields)
		require.Len(t, hash, 66)
		assert.Equal(t, "0x", hash[:2])
	})

	t.Run("any field change produces a different digest", func(t *testing.T) {
		base := hashing.ComputeHash(fields)

		mutations := []hashing.ProductFields{
			{Name: "Widget2", Manufacturer: "Acme", Origin: "USA", Description: "A widget"},
			{Name: "Widget", Manufacturer: "Acme Inc", Origin: "USA", Description: "A widget"},
			{Name: "Widget", Manufacturer: "Acme", Origin: "Canada", Description: "A widget"},
			{Name: "Widget", Manufacturer: "Acme", Origin: "USA", Description: "A tampered widget"},
		}
		for _, mutated := range mutations {
			assert.NotEqual(t, base, hashing.ComputeHash(mutated))
		}
	})

	t.Run("empty fields still hash", func(t *testing.T) {
		hash := hashing.ComputeHash(hashing.ProductFields{})
		require.Len(t, hash, 66)
		assert.NotEqual(t, hash, hashing.ComputeHash(fields))
	})
}
