package entity

// FilterByTags returns the records carrying every active tag. With no
// active tags the input is returned unchanged.
func FilterByTags(records []PropertyRecord, activeTags []string) []PropertyRecord {
	if len(activeTags) == 0 {
		return records
	}
	var out []PropertyRecord
	for _, r := range records {
		if hasAllTags(r.Tags, activeTags) {
			out = append(out, r)
		}
	}
	return out
}

func hasAllTags(tags, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, t := range tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
