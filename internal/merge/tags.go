package merge

import (
	"strings"

	"github.com/mfcosta/listings-tracker/internal/entity"
)

// DeriveTags computes the tag index for one record: the user's free tags
// unioned with every non-empty value among neighborhood, agency, property
// type and status, plus all categories. Deduplicated, insertion order
// preserved. Tags are a filter index, never authoritative data.
func DeriveTags(c entity.CandidateRecord) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		tags = append(tags, v)
	}

	for _, t := range c.UserTags {
		add(t)
	}
	add(c.Neighborhood)
	add(c.AgencyName)
	add(string(c.PropertyType))
	add(string(c.Status))
	for _, cat := range c.Categories {
		add(string(cat))
	}
	return tags
}

// RetagRecord recomputes a stored record's tag index after a field edit.
// Existing tags are kept (user-entered labels are indistinguishable from
// previously derived ones) and every value derived from the current
// fields is unioned in, so the index never lags behind the record.
func RetagRecord(r entity.PropertyRecord) []string {
	seen := make(map[string]struct{})
	var tags []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		tags = append(tags, v)
	}

	for _, t := range r.Tags {
		add(t)
	}
	add(r.Neighborhood)
	add(r.AgencyName)
	add(string(r.PropertyType))
	add(string(r.Status))
	for _, cat := range r.Categories {
		add(string(cat))
	}
	return tags
}
