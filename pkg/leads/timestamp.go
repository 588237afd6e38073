package leads

import (
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp converts an entryDate value into an absolute instant.
// Strings are matched against a fixed set of ISO-8601 style layouts; numbers
// are Unix epoch milliseconds. Any other value, or a string no layout
// accepts, reports false.
func ParseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case json.Number:
		if ms, err := val.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if f, err := val.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC(), true
		}
		return time.Time{}, false
	case time.Time:
		return val.UTC(), !val.IsZero()
	default:
		return time.Time{}, false
	}
}

// NotBefore reports whether incoming is at or after existing. The result is
// false when either value cannot be parsed, so an entry with an unreadable
// timestamp never replaces another.
func NotBefore(incoming, existing any) (ok bool, parsed bool) {
	in, inOK := ParseTimestamp(incoming)
	ex, exOK := ParseTimestamp(existing)
	if !inOK || !exOK {
		return false, false
	}
	return !in.Before(ex), true
}
