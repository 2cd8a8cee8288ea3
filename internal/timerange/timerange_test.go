package timerange

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		expr string
		want time.Duration
	}{
		{"30D", 30 * Day},
		{"15d", 15 * Day},
		{"2W", 14 * Day},
		{"4w", 28 * Day},
		{"6M", 180 * Day},
		{"3m", 90 * Day},
		{"1Y", 365 * Day},
		{"2y", 730 * Day},
		{"  30D  ", 30 * Day},
		{"0D", 0},
	}

	for _, c := range cases {
		got, err := Parse(c.expr)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", c.expr, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, expr := range []string{"30", "D", "30X", "", "D30", "3.5D", "30DD", "30D extra"} {
		_, err := Parse(expr)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", expr)
			continue
		}

		var invalid *InvalidFormatError
		if !errors.As(err, &invalid) {
			t.Errorf("Parse(%q) error type %T, want *InvalidFormatError", expr, err)
			continue
		}
		if !strings.Contains(err.Error(), expr) {
			t.Errorf("Parse(%q) error %q does not name the input", expr, err)
		}
	}
}

func TestParseRejectsUnrepresentableRanges(t *testing.T) {
	// Day counts above what time.Duration can hold would wrap negative and
	// turn "older than 1000 years" (nothing) into "everything".
	for _, expr := range []string{"1000Y", "110000D", "16000W", "4000M", "99999999999999999999D"} {
		d, err := Parse(expr)
		if err == nil {
			t.Errorf("Parse(%q) = %v, want range error", expr, d)
			continue
		}

		var rangeErr *RangeError
		if !errors.As(err, &rangeErr) {
			t.Errorf("Parse(%q) error type %T, want *RangeError", expr, err)
			continue
		}
		if !strings.Contains(err.Error(), expr) {
			t.Errorf("Parse(%q) error %q does not name the input", expr, err)
		}
	}
}

func TestParseLargestRepresentableRange(t *testing.T) {
	// 106751 days is the last value that still fits; it must parse and stay
	// positive.
	d, err := Parse("106751D")
	if err != nil {
		t.Fatalf("Parse(106751D): %v", err)
	}
	if d <= 0 {
		t.Fatalf("Parse(106751D) = %v, want a positive duration", d)
	}

	if _, err := Parse("106752D"); err == nil {
		t.Error("Parse(106752D) succeeded, want range error")
	}
}

func TestParseErrorListsUnits(t *testing.T) {
	_, err := Parse("7Q")
	if err == nil {
		t.Fatal("Parse(7Q) succeeded, want error")
	}
	for _, unit := range []string{"30D", "2W", "6M", "1Y"} {
		if !strings.Contains(err.Error(), unit) {
			t.Errorf("error %q does not mention accepted format %s", err, unit)
		}
	}
}

func TestCutoffFrom(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := CutoffFrom(now, "30D")
	if err != nil {
		t.Fatalf("CutoffFrom: %v", err)
	}
	want := time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CutoffFrom = %v, want %v", got, want)
	}

	if _, err := CutoffFrom(now, "bogus"); err == nil {
		t.Error("CutoffFrom with invalid expression succeeded, want error")
	}

	// An overlong range must fail outright rather than yield a cutoff after
	// now, which a deletion run would treat as "match everything".
	if cutoff, err := CutoffFrom(now, "1000Y"); err == nil {
		t.Errorf("CutoffFrom(1000Y) = %v, want error", cutoff)
	}
}
