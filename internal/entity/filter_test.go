package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterByTags(t *testing.T) {
	records := []PropertyRecord{
		{ID: "1", Tags: []string{"Centro", "APARTMENT", "SEA_VIEW"}},
		{ID: "2", Tags: []string{"Centro", "HOUSE"}},
		{ID: "3", Tags: []string{"Praia Brava", "APARTMENT"}},
	}

	t.Run("no active tags returns everything", func(t *testing.T) {
		assert.Len(t, FilterByTags(records, nil), 3)
	})

	t.Run("single tag", func(t *testing.T) {
		out := FilterByTags(records, []string{"Centro"})
		assert.Len(t, out, 2)
	})

	t.Run("multiple tags are ANDed", func(t *testing.T) {
		out := FilterByTags(records, []string{"Centro", "APARTMENT"})
		if assert.Len(t, out, 1) {
			assert.Equal(t, "1", out[0].ID)
		}
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, FilterByTags(records, []string{"Centro", "Praia Brava"}))
	})
}
