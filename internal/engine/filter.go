package engine

// Filter retains the entries of m whose key is in allowed. An empty
// allowlist is the "unrestricted" sentinel and returns m unchanged, never
// an empty result. Filtering is applied on every snapshot read and every
// publish, so allowlist edits take effect immediately.
func Filter[V any](m map[string]V, allowed map[string]struct{}) map[string]V {
	if len(allowed) == 0 {
		return m
	}

	out := make(map[string]V)
	for key, value := range m {
		if _, ok := allowed[key]; ok {
			out[key] = value
		}
	}
	return out
}
