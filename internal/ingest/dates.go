package ingest

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cloudspend/internal/core"
)

var ErrUnparseableDate = errors.New("unparseable date")

// Textual layouts tried in order after the serial-number check. The list
// mirrors what the source exports actually contain: ISO forms first, then
// US month-first forms, then spelled-out month names.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-1-2",
}

// ParseFlexibleDate converts a raw cell value into a calendar date.
// Attempts, in order, first success wins:
//
//  1. fully numeric values are spreadsheet date serials (1900 date system)
//  2. standard textual layouts on the trimmed string
//  3. three -/ separated parts with a 4-digit third part are reinterpreted
//     day-first (DD-MM-YYYY) and reparsed
//
// The day-first fallback is a best-effort heuristic: it cannot distinguish
// DD-MM-YYYY from MM-DD-YYYY when both leading components are <= 12, and in
// that case the month-first layouts in step 2 have already won. Unparseable
// values are a failure signal; callers reject the row rather than storing a
// default date.
func ParseFlexibleDate(raw string) (core.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return core.Date{}, ErrUnparseableDate
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return core.Date{}, ErrUnparseableDate
		}
		return core.DateOf(t), nil
	}

	if d, ok := parseLayouts(s); ok {
		return d, nil
	}

	parts := splitDateParts(s)
	if len(parts) == 3 && len(parts[2]) == 4 {
		reordered := parts[2] + "-" + parts[1] + "-" + parts[0]
		if d, ok := parseLayouts(reordered); ok {
			return d, nil
		}
	}

	return core.Date{}, ErrUnparseableDate
}

func parseLayouts(s string) (core.Date, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), true
		}
	}
	return core.Date{}, false
}

func splitDateParts(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/'
	})
}
