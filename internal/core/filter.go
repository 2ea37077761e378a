package core

import (
	"strings"
	"time"
)

// Filter is the parsed form of a history query: at most one attribute
// predicate (category or payment mode) and an optional inclusive date range.
type Filter struct {
	Category    string
	PaymentMode string
	Start       time.Time
	End         time.Time
	HasRange    bool
}

// ParseFilter interprets the raw query parameters of the history and export
// endpoints. Malformed input is never fatal: an unparseable predicate is
// dropped and reported in the returned warnings, leaving the rest of the
// filter in effect.
//
// The filter expression has the shape "category:<value>" or "payment:<value>".
// The date range is applied only when both bounds are present and parse as
// YYYY-MM-DD calendar dates; the range is inclusive on both ends.
func ParseFilter(expr, startDate, endDate string) (Filter, []string) {
	var f Filter
	var warnings []string

	if expr = strings.TrimSpace(expr); expr != "" {
		kind, value, found := strings.Cut(expr, ":")
		switch {
		case !found:
			warnings = append(warnings, "Invalid filter format. Expected 'filter_type:value'.")
		case kind == "category":
			f.Category = value
		case kind == "payment":
			f.PaymentMode = value
		default:
			warnings = append(warnings, "Invalid filter type provided.")
		}
	}

	if startDate != "" && endDate != "" {
		start, errStart := time.Parse("2006-01-02", startDate)
		end, errEnd := time.Parse("2006-01-02", endDate)
		if errStart != nil || errEnd != nil {
			warnings = append(warnings, "Invalid date format. Expected 'YYYY-MM-DD'.")
		} else {
			f.Start = start
			f.End = end
			f.HasRange = true
		}
	}

	return f, warnings
}
