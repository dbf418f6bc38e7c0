package listfield

// Dedupe keeps the first occurrence of every case-insensitive token class.
//
// kept preserves input order and the spelling of each first occurrence.
// duplicates holds one folded key per class that occurred more than once,
// ordered by the first occurrence of that class.
func Dedupe(tokens []string) (kept, duplicates []string) {
	if len(tokens) == 0 {
		return nil, nil
	}

	counts := make(map[string]int, len(tokens))
	keys := make([]string, 0, len(tokens))
	for _, token := range tokens {
		key := Key(token)
		if counts[key] == 0 {
			kept = append(kept, token)
			keys = append(keys, key)
		}
		counts[key]++
	}

	for _, key := range keys {
		if counts[key] > 1 {
			duplicates = append(duplicates, key)
		}
	}
	return kept, duplicates
}

// HasDuplicates reports whether any two tokens are case-insensitively equal.
func HasDuplicates(tokens []string) bool {
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		key := Key(token)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}
