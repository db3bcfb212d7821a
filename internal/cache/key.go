package cache

import (
	"sort"
	"strings"
	"time"
)

// Key joins dimension parts into a canonical cache key. Every dimension that
// changes a result must be present so that semantically identical requests hit
// the same entry.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// ProtocolsPart canonicalizes a protocol list: lowercased, sorted, joined.
// Order of the caller's list never produces a distinct key.
func ProtocolsPart(protocols []string) string {
	if len(protocols) == 0 {
		return "*"
	}
	sorted := make([]string, len(protocols))
	for i, p := range protocols {
		sorted[i] = strings.ToLower(p)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// DatePart formats an optional date bound.
func DatePart(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
