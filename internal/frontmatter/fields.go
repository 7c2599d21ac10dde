package frontmatter

// Typed accessors over the parsed field map. Front matter arrives as
// map[string]any from YAML; these helpers normalize the scalar shapes YAML
// can produce (int vs float, etc.) so callers don't repeat the switches.

// String returns the string value for key, or fallback when absent or not a string.
func String(fields map[string]any, key, fallback string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Int returns the integer value for key, or fallback. YAML numbers may
// surface as int, int64, or float64 depending on their literal form.
func Int(fields map[string]any, key string, fallback int) int {
	v, ok := fields[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// Bool returns the boolean value for key, or fallback.
func Bool(fields map[string]any, key string, fallback bool) bool {
	if v, ok := fields[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}
