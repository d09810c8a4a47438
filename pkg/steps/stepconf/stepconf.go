// Package stepconf provides typed accessors for the loosely-typed step
// configuration maps the registry passes to factories. Config values arrive
// either from decoded JSON ([]any, float64) or from Go callers ([]string,
// int), so every accessor handles both.
package stepconf

// String returns config[key] as a string, or empty when absent.
func String(config map[string]any, key string) string {
	value, _ := config[key].(string)

	return value
}

// Int returns config[key] as an int, accepting JSON float64.
func Int(config map[string]any, key string) int {
	switch value := config[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		return 0
	}
}

// StringSlice returns config[key] as a []string, accepting JSON []any.
func StringSlice(config map[string]any, key string) []string {
	switch value := config[key].(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))

		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
