package config

import (
	"testing"
	"time"
)

func TestWeekdayToTime_CoversAllDays(t *testing.T) {
	names := []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

	seen := make(map[time.Weekday]bool)
	for _, name := range names {
		d, ok := name.ToTime()
		if !ok {
			t.Fatalf("no mapping for %q", name)
		}
		if seen[d] {
			t.Errorf("duplicate mapping for %v", d)
		}
		seen[d] = true
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 distinct weekdays, got %d", len(seen))
	}
}

func TestWeekdayToTime_RejectsUnknownName(t *testing.T) {
	if _, ok := Weekday("Funday").ToTime(); ok {
		t.Error("unknown weekday name accepted")
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 10},
		{0, 10},
		{25, 25},
		{DefaultPaginationLimit, DefaultPaginationLimit},
		{DefaultPaginationLimit + 1, DefaultPaginationLimit},
	}
	for _, tc := range cases {
		if got := NormalizePaginationLimit(tc.in); got != tc.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOffset(t *testing.T) {
	if got := NormalizeOffset(-1); got != 0 {
		t.Errorf("NormalizeOffset(-1) = %d, want 0", got)
	}
	if got := NormalizeOffset(42); got != 42 {
		t.Errorf("NormalizeOffset(42) = %d, want 42", got)
	}
}
