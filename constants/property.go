package constants

import (
	"strings"
)

// PropertyType classifies a listing.
type PropertyType string

const (
	House         PropertyType = "HOUSE"
	Apartment     PropertyType = "APARTMENT"
	Lot           PropertyType = "LOT"
	OtherProperty PropertyType = "OTHER"
)

var allPropertyTypes = []PropertyType{House, Apartment, Lot, OtherProperty}

// ListingStatus tracks where a listing sits in the sales cycle.
type ListingStatus string

const (
	StatusAvailable     ListingStatus = "AVAILABLE"
	StatusNewThisWeek   ListingStatus = "NEW_THIS_WEEK"
	StatusChanged       ListingStatus = "CHANGED"
	StatusSoldThisWeek  ListingStatus = "SOLD_THIS_WEEK"
	StatusSoldThisMonth ListingStatus = "SOLD_THIS_MONTH"
)

var allStatuses = []ListingStatus{
	StatusAvailable,
	StatusNewThisWeek,
	StatusChanged,
	StatusSoldThisWeek,
	StatusSoldThisMonth,
}

// PropertyCategory describes facing/finish attributes. A listing may carry several.
type PropertyCategory string

const (
	Front     PropertyCategory = "FRONT"
	Side      PropertyCategory = "SIDE"
	Rear      PropertyCategory = "REAR"
	Furnished PropertyCategory = "FURNISHED"
	Staged    PropertyCategory = "STAGED"
	SeaView   PropertyCategory = "SEA_VIEW"
)

var allCategories = []PropertyCategory{Front, Side, Rear, Furnished, Staged, SeaView}

func PropertyTypesAsStrings() []string {
	result := make([]string, len(allPropertyTypes))
	for i, t := range allPropertyTypes {
		result[i] = string(t)
	}
	return result
}

func StatusesAsStrings() []string {
	result := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		result[i] = string(s)
	}
	return result
}

func CategoriesAsStrings() []string {
	result := make([]string, len(allCategories))
	for i, c := range allCategories {
		result[i] = string(c)
	}
	return result
}

// CanonicalizePropertyType maps a model-produced label to the enum.
// Accepts the Portuguese labels the source documents use. Unknown
// labels fall back to OTHER so a single bad field never discards a record.
func CanonicalizePropertyType(input string) (PropertyType, bool) {
	normalized := normalize(input)
	if normalized == "" {
		return OtherProperty, false
	}

	synonyms := map[string]PropertyType{
		"casa":        House,
		"sobrado":     House,
		"apartamento": Apartment,
		"apto":        Apartment,
		"flat":        Apartment,
		"terreno":     Lot,
		"lote":        Lot,
		"outro":       OtherProperty,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allPropertyTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}
	return OtherProperty, false
}

// CanonicalizeStatus falls back to AVAILABLE for unknown labels.
func CanonicalizeStatus(input string) (ListingStatus, bool) {
	normalized := normalize(input)
	if normalized == "" {
		return StatusAvailable, false
	}

	synonyms := map[string]ListingStatus{
		"disponivel":        StatusAvailable,
		"novidade":          StatusNewThisWeek,
		"alterado":          StatusChanged,
		"vendido":           StatusSoldThisMonth,
		"vendido na semana": StatusSoldThisWeek,
	}
	if s, ok := synonyms[normalized]; ok {
		return s, true
	}

	for _, s := range allStatuses {
		if normalized == strings.ToLower(string(s)) {
			return s, true
		}
	}
	return StatusAvailable, false
}

// CanonicalizeCategory has no safe default: unknown labels are dropped.
func CanonicalizeCategory(input string) (PropertyCategory, bool) {
	normalized := normalize(input)
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]PropertyCategory{
		"frente":               Front,
		"lateral":              Side,
		"fundos":               Rear,
		"mobiliado":            Furnished,
		"decorado":             Staged,
		"com_vista_para_o_mar": SeaView,
		"vista mar":            SeaView,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}

	for _, c := range allCategories {
		if normalized == strings.ToLower(string(c)) {
			return c, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
