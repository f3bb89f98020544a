// Package attrs reads values back out of slog-style key/value attribute lists.
package attrs

// ExtractString extracts a string value from a key-value attribute slice.
// The slice should be formatted as [key1, value1, key2, value2, ...].
// Returns empty string if the key is not found or the value is not a string.
func ExtractString(attrs []any, key string) string {
	v, ok := Extract(attrs, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Extract returns the raw value stored under key.
func Extract(attrs []any, key string) (any, bool) {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			return attrs[i+1], true
		}
	}
	return nil, false
}

// ExtractError returns the error stored under key, if any.
func ExtractError(attrs []any, key string) error {
	v, ok := Extract(attrs, key)
	if !ok {
		return nil
	}
	err, _ := v.(error)
	return err
}
