package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sanitized(t *testing.T, in string) map[string]any {
	t.Helper()
	out, _, err := SanitizeEnvelope([]byte(in), nil)
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(out, &env))
	return env
}

func firstRecord(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	items, ok := env["properties"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, items)
	rec, ok := items[0].(map[string]any)
	require.True(t, ok)
	return rec
}

func TestSanitizeNumericCoercion(t *testing.T) {
	env := sanitized(t, `{"properties":[{
		"property_name":"Ed. Farol",
		"price":"R$ 350.000,00",
		"area_sqm":"72,5",
		"bedrooms":"3",
		"total_area_sqm":"n/a"
	}]}`)
	rec := firstRecord(t, env)

	assert.Equal(t, float64(350000), rec["price"])
	assert.Equal(t, 72.5, rec["area_sqm"])
	assert.Equal(t, float64(3), rec["bedrooms"])
	// unparseable numerics are dropped, never guessed
	assert.NotContains(t, rec, "total_area_sqm")
}

func TestSanitizeFractionalCounts(t *testing.T) {
	env := sanitized(t, `{"properties":[{
		"bedrooms":2.5,
		"bathrooms":"1,5",
		"area_sqm":72.5,
		"price":350000.50
	}]}`)
	rec := firstRecord(t, env)

	// counts are whole numbers on the record; fractions truncate
	assert.Equal(t, float64(2), rec["bedrooms"])
	assert.Equal(t, float64(1), rec["bathrooms"])
	// area and price keep their fractional part
	assert.Equal(t, 72.5, rec["area_sqm"])
	assert.Equal(t, 350000.50, rec["price"])

	var out PropertiesEnvelope
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2, out.Properties[0].Bedrooms)
}

func TestSanitizeGroupedThousands(t *testing.T) {
	env := sanitized(t, `{"properties":[{"price":"1.250.000"}]}`)
	rec := firstRecord(t, env)
	assert.Equal(t, float64(1250000), rec["price"])
}

func TestSanitizeEnums(t *testing.T) {
	env := sanitized(t, `{"properties":[{
		"property_type":"cobertura duplex",
		"status":"NOVIDADE",
		"categories":["frente","castelo","vista mar"]
	}]}`)
	rec := firstRecord(t, env)

	assert.Equal(t, "OTHER", rec["property_type"])
	assert.Equal(t, "NEW_THIS_WEEK", rec["status"])
	assert.Equal(t, []any{"FRONT", "SEA_VIEW"}, rec["categories"])
}

func TestSanitizeSingularCategory(t *testing.T) {
	env := sanitized(t, `{"properties":[{"category":"decorado"}]}`)
	rec := firstRecord(t, env)

	assert.Equal(t, []any{"STAGED"}, rec["categories"])
	assert.NotContains(t, rec, "category")
}

func TestSanitizeUnknownKeysAndEmptyStrings(t *testing.T) {
	env := sanitized(t, `{"properties":[{
		"property_name":"  Ed. Farol  ",
		"broker_name":"   ",
		"rooftop_pool":true
	}]}`)
	rec := firstRecord(t, env)

	assert.Equal(t, "Ed. Farol", rec["property_name"])
	assert.NotContains(t, rec, "broker_name")
	assert.NotContains(t, rec, "rooftop_pool")
}

func TestSanitizeNeverDropsARecord(t *testing.T) {
	env := sanitized(t, `{"properties":[
		{"price":"???","property_type":"iglu","bedrooms":null},
		{"property_name":"Ok"}
	]}`)
	items := env["properties"].([]any)
	assert.Len(t, items, 2)
}

func TestSanitizeLeavesMalformedEnvelopeToValidation(t *testing.T) {
	raw := []byte(`{"properties":"not-a-list"}`)
	out, notes, err := SanitizeEnvelope(raw, nil)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, raw, out)
}

func TestSanitizeRejectsNonJSON(t *testing.T) {
	_, _, err := SanitizeEnvelope([]byte("sorry, I cannot help with that"), nil)
	require.Error(t, err)
}

func TestParseLooseNumber(t *testing.T) {
	cases := map[string]float64{
		"350000":        350000,
		"350000.50":     350000.50,
		"350.000":       350000,
		"1.250.000":     1250000,
		"350.000,00":    350000,
		"R$ 350.000,00": 350000,
		"R$1.250.000":   1250000,
		"72,5":          72.5,
	}
	for in, want := range cases {
		got, err := parseLooseNumber(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "R$", "12abc"} {
		_, err := parseLooseNumber(in)
		assert.Error(t, err, in)
	}
}
