package filters

// Params represents decode parameters from PDF stream dictionaries.
// Values are plain Go types: int, float64, bool or string.
type Params map[string]interface{}

// Int returns the integer parameter key, or def when it is missing or not
// numeric.
func (p Params) Int(key string, def int) int {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Bool returns the boolean parameter key, or def when it is missing or not
// a boolean.
func (p Params) Bool(key string, def bool) bool {
	if p == nil {
		return def
	}
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}
