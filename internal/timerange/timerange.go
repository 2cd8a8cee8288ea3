package timerange

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day is the base unit for all parsed ranges. Months and years are calendar
// approximations: 30 and 365 days respectively.
const Day = 24 * time.Hour

// maxDays is the largest day count a time.Duration can hold (about 292
// years). Beyond it the nanosecond multiplication wraps negative, which would
// turn a cutoff in the distant past into one in the future.
const maxDays = int64(math.MaxInt64) / int64(Day)

var exprRegex = regexp.MustCompile(`^(\d+)([DdWwMmYy])$`)

// InvalidFormatError reports a time range expression that does not match the
// accepted grammar.
type InvalidFormatError struct {
	Input string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid time range format %q: use formats like 30D (days), 2W (weeks), 6M (months), 1Y (years)", e.Input)
}

// RangeError reports an expression that matches the grammar but whose
// duration does not fit in a time.Duration.
type RangeError struct {
	Input string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("time range %q is too large: the total must stay under %d days", e.Input, maxDays)
}

// Parse converts a human time range expression into a duration. The grammar is
// one or more decimal digits followed by exactly one unit letter, case
// insensitive, with optional surrounding whitespace: D for days, W for weeks,
// M for months (30 days each), Y for years (365 days). Anything else yields an
// *InvalidFormatError; a well-formed expression too large to represent yields
// a *RangeError.
func Parse(expr string) (time.Duration, error) {
	m := exprRegex.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return 0, &InvalidFormatError{Input: expr}
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Shape-valid digits that do not even fit in int64.
		return 0, &RangeError{Input: expr}
	}

	var unit int64 = 1
	switch strings.ToUpper(m[2]) {
	case "W":
		unit = 7
	case "M":
		unit = 30
	case "Y":
		unit = 365
	}

	if value > maxDays/unit {
		return 0, &RangeError{Input: expr}
	}

	return time.Duration(value*unit) * Day, nil
}

// CutoffFrom returns the absolute instant obtained by subtracting the parsed
// expression from now.
func CutoffFrom(now time.Time, expr string) (time.Time, error) {
	d, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
