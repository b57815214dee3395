package ingress

import (
	"strconv"
	"time"
)

// stringField extracts a string-typed value from a decoded stream
// message. go-redis returns stream field values as strings; a value of any
// other type is reported as absent.
func stringField(values map[string]interface{}, key string) (string, bool) {
	v, ok := values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func floatField(values map[string]interface{}, key string) (float64, bool) {
	s, ok := stringField(values, key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseTimestamp parses an RFC3339 timestamp, falling back to now if the
// field is absent or malformed — ingress never drops a message for a bad
// clock value.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now()
	}
	return t
}
