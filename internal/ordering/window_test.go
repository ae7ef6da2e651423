package ordering

import (
	"testing"
	"time"
)

func sgt(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestWalkInLeadTime(t *testing.T) {
	loc := sgt(t)
	policy := NewWindowPolicy(loc, 2, 3)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)

	cases := []struct {
		name     string
		date     string
		time     string
		wantCode ErrorCode
	}{
		{"well past the lead", "2026-03-10", "15:00", ""},
		{"exactly at the boundary", "2026-03-10", "12:00", ""},
		{"one minute short", "2026-03-10", "11:59", ErrLeadTimeNotMet},
		{"in the past", "2026-03-10", "09:00", ErrLeadTimeNotMet},
		{"next day is fine", "2026-03-11", "08:00", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(OrderWalkIn, tc.date, tc.time, now)
			checkWindowResult(t, err, tc.wantCode)
		})
	}
}

func TestPreorderLeadTime(t *testing.T) {
	loc := sgt(t)
	policy := NewWindowPolicy(loc, 2, 3)
	// Late evening: date arithmetic must still count whole calendar
	// days, not 72 clock hours.
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	cases := []struct {
		name     string
		date     string
		time     string
		wantCode ErrorCode
	}{
		{"three days out", "2026-03-13", "10:00", ""},
		{"three days out early morning", "2026-03-13", "00:30", ""},
		{"two days out", "2026-03-12", "18:00", ErrLeadTimeNotMet},
		{"same day", "2026-03-10", "23:45", ErrLeadTimeNotMet},
		{"far future", "2026-04-01", "09:00", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(OrderPreorder, tc.date, tc.time, now)
			checkWindowResult(t, err, tc.wantCode)
		})
	}
}

func TestWindowRejectsMalformedDateTime(t *testing.T) {
	loc := sgt(t)
	policy := NewWindowPolicy(loc, 2, 3)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)

	cases := []struct {
		name string
		date string
		time string
	}{
		{"empty", "", ""},
		{"garbage date", "tomorrow", "10:00"},
		{"wrong date layout", "10-03-2026", "10:00"},
		{"garbage time", "2026-03-12", "ten"},
		{"out of range", "2026-03-12", "25:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(OrderWalkIn, tc.date, tc.time, now)
			if err == nil {
				t.Fatalf("expected rejection for %q %q", tc.date, tc.time)
			}
			if err.Code != ErrInvalidDateTime {
				t.Fatalf("code = %s, want %s", err.Code, ErrInvalidDateTime)
			}
		})
	}
}

func checkWindowResult(t *testing.T, err *Error, wantCode ErrorCode) {
	t.Helper()
	if wantCode == "" {
		if err != nil {
			t.Fatalf("unexpected rejection: %s (%s)", err.Message, err.Code)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected rejection with code %s, got none", wantCode)
	}
	if err.Code != wantCode {
		t.Fatalf("code = %s, want %s", err.Code, wantCode)
	}
}
