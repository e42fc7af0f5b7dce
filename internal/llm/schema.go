package llm

// BuildPropertiesJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// the {"properties": [...]} envelope. We pass it to the model as a structured
// output constraint and also use it locally to validate the response.
//
// Per-record constraints are deliberately loose: optional fields may be
// absent and enum fields are plain strings here, because unknown enum labels
// are coerced afterwards rather than failing the whole batch.
func BuildPropertiesJSONSchema() map[string]any {
	record := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"broker_name":         map[string]any{"type": "string"},
			"agency_name":         map[string]any{"type": "string"},
			"property_name":       map[string]any{"type": "string"},
			"unit_number":         map[string]any{"type": "string"},
			"bedrooms":            numberProp(),
			"bathrooms":           numberProp(),
			"suites":              numberProp(),
			"lavabos":             numberProp(),
			"area_sqm":            numberProp(),
			"total_area_sqm":      numberProp(),
			"price":               numberProp(),
			"payment_terms":       map[string]any{"type": "string"},
			"additional_features": map[string]any{"type": "string"},
			"property_type":       map[string]any{"type": "string"},
			"status":              map[string]any{"type": "string"},
			"categories": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"address":             map[string]any{"type": "string"},
			"neighborhood":        map[string]any{"type": "string"},
			"broker_contact":      map[string]any{"type": "string"},
			"photo_link":          map[string]any{"type": "string"},
			"extra_material_link": map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"properties"},
		"properties": map[string]any{
			"properties": map[string]any{
				"type":  "array",
				"items": record,
			},
		},
	}
}

// numberProp accepts both JSON numbers and numeric strings; models are
// inconsistent about which they emit, and the sanitizer coerces strings.
func numberProp() map[string]any {
	return map[string]any{"type": []any{"number", "string"}}
}

// KnownRecordKeys is the allow-list used by the sanitizer.
func KnownRecordKeys() map[string]struct{} {
	return map[string]struct{}{
		"broker_name": {}, "agency_name": {}, "property_name": {}, "unit_number": {},
		"bedrooms": {}, "bathrooms": {}, "suites": {}, "lavabos": {},
		"area_sqm": {}, "total_area_sqm": {}, "price": {},
		"payment_terms": {}, "additional_features": {},
		"property_type": {}, "status": {}, "categories": {},
		"address": {}, "neighborhood": {}, "broker_contact": {},
		"photo_link": {}, "extra_material_link": {},
	}
}
