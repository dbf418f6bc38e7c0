package listfield

// Lookup is a case-insensitive membership test over forbidden tokens.
type Lookup interface {
	Contains(token string) bool
}

// Resolve drops tokens that are members of forbidden.
//
// The input is deduplicated first so a token that appears twice is reported
// as removed only once. kept follows first-occurrence order; removed lists
// the distinct excluded tokens in the spelling of their first occurrence.
// A nil forbidden set removes nothing.
func Resolve(tokens []string, forbidden Lookup) (kept, removed []string) {
	unique, _ := Dedupe(tokens)
	if forbidden == nil {
		return unique, nil
	}

	for _, token := range unique {
		if forbidden.Contains(token) {
			removed = append(removed, token)
			continue
		}
		kept = append(kept, token)
	}
	return kept, removed
}
