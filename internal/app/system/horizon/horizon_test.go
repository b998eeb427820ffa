package horizon

import (
	"testing"
	"time"
)

func TestMondayOf(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2025, 5, 12, 9, 30, 0, 0, time.UTC), time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 5, 18, 23, 59, 0, 0, time.UTC), time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := MondayOf(tt.in, time.UTC); !got.Equal(tt.want) {
			t.Errorf("MondayOf(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWeeks(t *testing.T) {
	got, err := Weeks(time.Date(2025, 5, 14, 15, 0, 0, 0, time.UTC), 3, time.UTC)
	if err != nil {
		t.Fatalf("Weeks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	first := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	for i, w := range got {
		wantStart := first.AddDate(0, 0, 7*i)
		if !w.Start.Equal(wantStart) || !w.End.Equal(wantStart.AddDate(0, 0, 7)) {
			t.Errorf("week %d = %v..%v", i, w.Start, w.End)
		}
	}
}

func TestWeeks_Bounds(t *testing.T) {
	for _, n := range []int{0, -1, MaxWeeks + 1} {
		if _, err := Weeks(time.Now(), n, time.UTC); err == nil {
			t.Errorf("Weeks(n=%d) should fail", n)
		}
	}
}

func TestWeeks_DST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	// 2025-03-09 is the spring-forward Sunday.
	got, err := Weeks(time.Date(2025, 3, 5, 12, 0, 0, 0, ny), 1, ny)
	if err != nil {
		t.Fatalf("Weeks: %v", err)
	}
	if d := got[0].End.Sub(got[0].Start); d != 7*24*time.Hour-time.Hour {
		t.Errorf("DST week length = %v", d)
	}
	if h := got[0].End.In(ny).Hour(); h != 0 {
		t.Errorf("week end hour = %d, want 0", h)
	}
}
