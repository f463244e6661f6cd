package clock

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestMidnight(t *testing.T) {
	in := time.Date(2025, 3, 14, 23, 59, 59, 999, time.Local)
	got := Midnight(in)
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("Midnight() = %v, want %v", got, want)
	}
	if got.Location() != in.Location() {
		t.Errorf("Midnight() changed location to %v", got.Location())
	}
}

func TestAddDaysAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// Clocks spring forward on 2025-03-09; a 24h Add would land at 01:00.
	start := time.Date(2025, 3, 8, 23, 0, 0, 0, ny)
	got := AddDays(start, 1)
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("AddDays() = %v, want %v", got, want)
	}

	got = AddDays(start, 2)
	if got.Hour() != 0 || got.Day() != 10 {
		t.Errorf("AddDays(+2) = %v, want midnight on the 10th", got)
	}
}

func TestAddDaysMonthRollover(t *testing.T) {
	got := AddDays(time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC), 1)
	want := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddDays() = %v, want %v", got, want)
	}
}

func TestSameOrBefore(t *testing.T) {
	today8 := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	testCases := []struct {
		name string
		a    time.Time
		want bool
	}{
		{"later hour same day", time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC), true},
		{"earlier hour same day", time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), true},
		{"yesterday", time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC), true},
		{"tomorrow at midnight", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), false},
		{"next year", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SameOrBefore(tc.a, today8); got != tc.want {
				t.Errorf("SameOrBefore(%v, %v) = %v, want %v", tc.a, today8, got, tc.want)
			}
		})
	}
}

func TestSameOrBeforeKeepsWrittenDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// Berlin midnight of the 16th is 22:00 on the 15th in UTC.
	tomorrowBerlin := time.Date(2025, 6, 16, 0, 0, 0, 0, berlin)
	noonUTC := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	if SameOrBefore(tomorrowBerlin, noonUTC) {
		t.Errorf("SameOrBefore(%v, %v) = true, want false", tomorrowBerlin, noonUTC)
	}
	if !SameOrBefore(tomorrowBerlin, noonUTC.AddDate(0, 0, 1)) {
		t.Errorf("expected the 16th to be due on the 16th in UTC")
	}

	// Tokyo is ahead: 01:00 on the 15th in Tokyo is still the 14th in UTC.
	todayTokyo := time.Date(2025, 6, 15, 0, 0, 0, 0, tokyo)
	earlyUTC := time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC)
	if SameOrBefore(todayTokyo, earlyUTC) {
		t.Errorf("SameOrBefore(%v, %v) = true, want false", todayTokyo, earlyUTC)
	}
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		ok      bool
		wantDay int
	}{
		{"rfc3339", "2025-06-15T15:00:00Z", true, 15},
		{"rfc3339 nano", "2025-06-15T15:00:00.123Z", true, 15},
		{"no zone", "2025-06-15T15:00:00", true, 15},
		{"sql timestamp", "2025-06-15 15:00:00", true, 15},
		{"date only", "2025-06-16", true, 16},
		{"padded", "  2025-06-16  ", true, 16},
		{"empty", "", false, 0},
		{"garbage", "not-a-date", false, 0},
		{"invalid month", "2025-13-01", false, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDate(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && got.Day() != tc.wantDay {
				t.Errorf("ParseDate(%q) day = %d, want %d", tc.input, got.Day(), tc.wantDay)
			}
		})
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	in := time.Date(2025, 6, 16, 0, 0, 0, 0, time.Local)
	got, ok := ParseDate(FormatDate(in))
	if !ok {
		t.Fatalf("ParseDate(FormatDate()) failed for %v", in)
	}
	if !got.Equal(in) {
		t.Errorf("round trip = %v, want %v", got, in)
	}
}

func TestFixedAndFunc(t *testing.T) {
	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	if got := Fixed(at).Now(); !got.Equal(at) {
		t.Errorf("Fixed.Now() = %v, want %v", got, at)
	}
	if got := Func(func() time.Time { return at }).Now(); !got.Equal(at) {
		t.Errorf("Func.Now() = %v, want %v", got, at)
	}
	if _, ok := OrSystem(nil).(System); !ok {
		t.Error("OrSystem(nil) should return System")
	}
}
