package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mfcosta/listings-tracker/constants"
)

var groupedNumberRe = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

var numericKeys = []string{
	"bedrooms", "bathrooms", "suites", "lavabos",
	"area_sqm", "total_area_sqm", "price",
}

// countKeys hold whole numbers on the record side; fractional values
// from the model are truncated rather than failing the batch.
var countKeys = []string{"bedrooms", "bathrooms", "suites", "lavabos"}

var textKeys = []string{
	"broker_name", "agency_name", "property_name", "unit_number",
	"payment_terms", "additional_features", "address", "neighborhood",
	"broker_contact", "photo_link", "extra_material_link",
}

// SanitizeEnvelope normalizes a raw model response in place, record by
// record, so the envelope as a whole can validate:
//   - numeric strings ("350000") become numbers; unparseable numerics are
//     dropped (the field stays zero and is caught at commit validation)
//   - unknown enum labels are coerced to their safe defaults
//     (OTHER / AVAILABLE) and unknown categories are dropped
//   - unknown keys are removed, empty strings trimmed away
//
// A record is never discarded here: a single malformed field must not
// cost the user an otherwise-useful listing.
func SanitizeEnvelope(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode envelope: %w", err)
	}

	items, ok := env["properties"].([]any)
	if !ok {
		// leave it to schema validation to report the malformed envelope
		return raw, nil, nil
	}

	var notes []string
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		notes = append(notes, sanitizeRecord(rec, i)...)
		items[i] = rec
	}
	env["properties"] = items

	out, err := json.Marshal(env)
	if err != nil {
		return nil, notes, fmt.Errorf("sanitize: encode envelope: %w", err)
	}
	if len(notes) > 0 {
		logger.Warn("llm.extract.sanitized", "notes", notes)
	}
	return out, notes, nil
}

func sanitizeRecord(rec map[string]any, idx int) []string {
	var notes []string
	note := func(key, what string) {
		notes = append(notes, fmt.Sprintf("[%d].%s(%s)", idx, key, what))
	}

	for _, k := range numericKeys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			// already a number
		case string:
			s := strings.TrimSpace(t)
			if f, err := parseLooseNumber(s); err == nil {
				rec[k] = f
				note(k, "coerced")
			} else {
				delete(rec, k)
				note(k, "unparseable")
			}
		case nil:
			delete(rec, k)
			note(k, "null")
		default:
			delete(rec, k)
			note(k, "type")
		}
	}

	for _, k := range countKeys {
		if f, ok := rec[k].(float64); ok && f != math.Trunc(f) {
			rec[k] = math.Trunc(f)
			note(k, "truncated")
		}
	}

	if v, ok := rec["property_type"].(string); ok {
		canon, known := constants.CanonicalizePropertyType(v)
		rec["property_type"] = string(canon)
		if !known {
			note("property_type", "defaulted")
		}
	}
	if v, ok := rec["status"].(string); ok {
		canon, known := constants.CanonicalizeStatus(v)
		rec["status"] = string(canon)
		if !known {
			note("status", "defaulted")
		}
	}
	if v, ok := rec["categories"]; ok {
		kept := coerceCategories(v)
		if len(kept) > 0 {
			rec["categories"] = kept
		} else {
			delete(rec, "categories")
			note("categories", "dropped")
		}
	}

	// legacy/singular shape some responses use
	if v, ok := rec["category"].(string); ok {
		if c, known := constants.CanonicalizeCategory(v); known {
			existing, _ := rec["categories"].([]any)
			rec["categories"] = append(existing, string(c))
		}
		delete(rec, "category")
		note("category", "folded")
	}

	for _, k := range textKeys {
		if v, ok := rec[k]; ok {
			s, isStr := v.(string)
			if !isStr || strings.TrimSpace(s) == "" {
				delete(rec, k)
				note(k, "empty")
			} else {
				rec[k] = strings.TrimSpace(s)
			}
		}
	}

	allowed := KnownRecordKeys()
	for k := range maps.Clone(rec) {
		if _, ok := allowed[k]; !ok {
			delete(rec, k)
			note(k, "unknown")
		}
	}
	return notes
}

func coerceCategories(v any) []any {
	items, ok := v.([]any)
	if !ok {
		if s, isStr := v.(string); isStr {
			items = []any{s}
		} else {
			return nil
		}
	}
	var kept []any
	for _, item := range items {
		s, isStr := item.(string)
		if !isStr {
			continue
		}
		if c, known := constants.CanonicalizeCategory(s); known {
			kept = append(kept, string(c))
		}
	}
	return kept
}

// parseLooseNumber accepts "350000", "350.000,00" and "R$ 350.000" style
// values as they appear in Brazilian listing sheets.
func parseLooseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	// pt-BR decimal comma, with optional dot grouping: 1.234.567,89
	if strings.Contains(s, ",") {
		t := strings.ReplaceAll(s, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, nil
		}
	}
	// dot grouping without decimals: 350.000 means 350000, not 350.0
	if groupedNumberRe.MatchString(s) {
		t := strings.ReplaceAll(s, ".", "")
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %q", s)
}
