package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnvelope(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		assert.NoError(t, ValidateEnvelope([]byte(`{"properties":[{"property_name":"Ed. Farol","price":350000}]}`)))
	})

	t.Run("empty list is valid", func(t *testing.T) {
		assert.NoError(t, ValidateEnvelope([]byte(`{"properties":[]}`)))
	})

	t.Run("numeric strings are admitted for coercion", func(t *testing.T) {
		assert.NoError(t, ValidateEnvelope([]byte(`{"properties":[{"price":"350000"}]}`)))
	})

	t.Run("missing properties key", func(t *testing.T) {
		require.Error(t, ValidateEnvelope([]byte(`{"listings":[]}`)))
	})

	t.Run("properties not a list", func(t *testing.T) {
		require.Error(t, ValidateEnvelope([]byte(`{"properties":"nope"}`)))
	})

	t.Run("unknown record key", func(t *testing.T) {
		require.Error(t, ValidateEnvelope([]byte(`{"properties":[{"rooftop_pool":true}]}`)))
	})

	t.Run("not json at all", func(t *testing.T) {
		require.Error(t, ValidateEnvelope([]byte(`sorry, I cannot help with that`)))
	})
}
