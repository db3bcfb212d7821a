package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Feed exports are messy: numeric columns show up as JSON numbers, plain
// strings, scientific notation, "<nil>" placeholders or nulls, and dates carry
// an assortment of layouts. The helpers here normalize all of that.

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.000 UTC",
}

// StringField returns the trimmed string value of a column, empty if missing.
func StringField(row Row, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

// NumberField coerces a numeric column. Missing values, nulls and "<nil>"
// placeholders read as 0; anything else unparseable is an error.
func NumberField(row Row, keys ...string) (float64, error) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			continue
		}
		switch value := v.(type) {
		case nil:
			return 0, nil
		case float64:
			return value, nil
		case int:
			return float64(value), nil
		case int64:
			return float64(value), nil
		case string:
			s := strings.TrimSpace(value)
			if s == "" || s == "<nil>" {
				return 0, nil
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return 0, fmt.Errorf("column %s: %w", key, err)
			}
			return d.InexactFloat64(), nil
		default:
			return 0, fmt.Errorf("column %s: unsupported type %T", key, v)
		}
	}
	return 0, nil
}

// NumberString returns a numeric column as a canonical decimal string,
// applying the same placeholder rules as NumberField.
func NumberString(row Row, keys ...string) (string, error) {
	n, err := NumberField(row, keys...)
	if err != nil {
		return "", err
	}
	return decimal.NewFromFloat(n).String(), nil
}

// DateField parses a date-like column, truncated to the calendar day.
func DateField(row Row, keys ...string) (time.Time, error) {
	raw := StringField(row, keys...)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date column (tried %v)", keys)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
