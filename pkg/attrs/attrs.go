// Package attrs reads values back out of slog-style variadic attribute
// slices. Audit helpers pass the same []any they hand to the logger, and
// lift selected attributes into the structured audit event.
package attrs

// ExtractString returns the value for key in an alternating
// [key1, value1, key2, value2, ...] slice. Missing keys, non-string keys,
// and non-string values all read as the empty string. Later duplicates win,
// matching how slog renders repeated attributes.
func ExtractString(attrs []any, key string) string {
	value := ""
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); !ok || k != key {
			continue
		}
		if v, ok := attrs[i+1].(string); ok {
			value = v
		}
	}
	return value
}
