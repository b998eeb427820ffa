package interval

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/domain/models"
)

func iv(s, e int64) models.Interval { return models.Interval{Start: s, End: e} }

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Interval
		want []models.Interval
	}{
		{"empty", nil, nil},
		{"single", []models.Interval{iv(5, 10)}, []models.Interval{iv(5, 10)}},
		{"disjoint unsorted", []models.Interval{iv(20, 30), iv(0, 10)}, []models.Interval{iv(0, 10), iv(20, 30)}},
		{"overlap", []models.Interval{iv(0, 10), iv(5, 15)}, []models.Interval{iv(0, 15)}},
		{"touching merges", []models.Interval{iv(0, 10), iv(10, 20)}, []models.Interval{iv(0, 20)}},
		{"contained", []models.Interval{iv(0, 100), iv(10, 20), iv(30, 40)}, []models.Interval{iv(0, 100)}},
		{"same start", []models.Interval{iv(0, 5), iv(0, 50)}, []models.Interval{iv(0, 50)}},
		{"point interval", []models.Interval{iv(7, 7), iv(0, 3)}, []models.Interval{iv(0, 3), iv(7, 7)}},
		{"chain", []models.Interval{iv(8, 12), iv(0, 4), iv(4, 8), iv(20, 21)}, []models.Interval{iv(0, 12), iv(20, 21)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	in := []models.Interval{iv(20, 30), iv(0, 10)}
	Merge(in)
	if in[0] != iv(20, 30) || in[1] != iv(0, 10) {
		t.Errorf("input was modified: %v", in)
	}
}

func randomIntervals(r *rand.Rand, n int) []models.Interval {
	out := make([]models.Interval, n)
	for i := range out {
		s := r.Int63n(MinutesPerWeek)
		e := s + r.Int63n(600)
		if e > MinutesPerWeek {
			e = MinutesPerWeek
		}
		out[i] = iv(s, e)
	}
	return out
}

func TestMerge_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		in := randomIntervals(r, 1+r.Intn(20))
		merged := Merge(in)

		// sorted and strictly separated
		for i := 1; i < len(merged); i++ {
			if merged[i-1].End >= merged[i].Start {
				t.Fatalf("round %d: merged not disjoint: %v", round, merged)
			}
		}

		// every input point is covered by exactly one merged interval
		for _, x := range in {
			covered := 0
			for _, m := range merged {
				if m.Start <= x.Start && x.End <= m.End {
					covered++
				}
			}
			if covered != 1 {
				t.Fatalf("round %d: %v covered %d times by %v", round, x, covered, merged)
			}
		}

		// every merged boundary comes from the input
		for _, m := range merged {
			var startOK, endOK bool
			for _, x := range in {
				startOK = startOK || x.Start == m.Start
				endOK = endOK || x.End == m.End
			}
			if !startOK || !endOK {
				t.Fatalf("round %d: merged interval %v not built from input", round, m)
			}
		}

		if again := Merge(merged); !reflect.DeepEqual(again, merged) {
			t.Fatalf("round %d: not idempotent: %v vs %v", round, again, merged)
		}

		shuffled := append([]models.Interval(nil), in...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := Merge(shuffled); !reflect.DeepEqual(got, merged) {
			t.Fatalf("round %d: order dependent: %v vs %v", round, got, merged)
		}
	}
}

func TestFree(t *testing.T) {
	tests := []struct {
		name string
		busy []models.Interval
		h    Horizon
		want []models.Interval
	}{
		{"empty busy", nil, Week, nil},
		{"single block", []models.Interval{iv(540, 600)}, Week, []models.Interval{iv(0, 540), iv(600, MinutesPerWeek)}},
		{"starts at origin", []models.Interval{iv(0, 60)}, Week, []models.Interval{iv(60, MinutesPerWeek)}},
		{"ends at horizon", []models.Interval{iv(100, MinutesPerWeek)}, Week, []models.Interval{iv(0, 100)}},
		{"whole week", []models.Interval{iv(0, MinutesPerWeek)}, Week, nil},
		{"two blocks", []models.Interval{iv(700, 800), iv(100, 200)}, Week, []models.Interval{iv(0, 100), iv(200, 700), iv(800, MinutesPerWeek)}},
		{"clipped", []models.Interval{iv(-50, 20), iv(90, 500)}, Horizon{0, 100}, []models.Interval{iv(20, 90)}},
		{"outside horizon", []models.Interval{iv(500, 600)}, Horizon{0, 100}, []models.Interval{iv(0, 100)}},
		{"empty horizon", []models.Interval{iv(0, 10)}, Horizon{10, 10}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Free(tt.busy, tt.h)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Free(%v, %v) = %v, want %v", tt.busy, tt.h, got, tt.want)
			}
		})
	}
}

func TestFree_Complement(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		busy := Merge(randomIntervals(r, 1+r.Intn(15)))
		free := Free(busy, Week)

		// busy and free alternate and tile the horizon end to end
		all := append(append([]models.Interval(nil), busy...), free...)
		tiled := Merge(all)
		if len(tiled) != 1 || tiled[0] != iv(0, MinutesPerWeek) {
			t.Fatalf("round %d: busy %v + free %v = %v", round, busy, free, tiled)
		}
		for _, f := range free {
			for _, b := range busy {
				if f.Start < b.End && b.Start < f.End {
					t.Fatalf("round %d: free %v overlaps busy %v", round, f, b)
				}
			}
		}
	}
}

func TestFoldWeek(t *testing.T) {
	utc := time.UTC
	// 2025-05-12 is a Monday.
	mon := func(day, h, m int) time.Time { return time.Date(2025, 5, 12+day, h, m, 0, 0, utc) }

	tests := []struct {
		name       string
		start, end time.Time
		want       []models.Interval
	}{
		{"monday morning", mon(0, 9, 0), mon(0, 10, 0), []models.Interval{iv(540, 600)}},
		{"tuesday", mon(1, 0, 30), mon(1, 1, 0), []models.Interval{iv(1470, 1500)}},
		{"sunday to midnight", mon(6, 23, 0), mon(7, 0, 0), []models.Interval{iv(10020, MinutesPerWeek)}},
		{"wraps into monday", mon(6, 23, 0), mon(7, 1, 0), []models.Interval{iv(10020, MinutesPerWeek), iv(0, 60)}},
		{"full week", mon(0, 0, 0), mon(7, 0, 0), []models.Interval{iv(0, MinutesPerWeek)}},
		{"longer than a week", mon(2, 5, 0), mon(20, 0, 0), []models.Interval{iv(0, MinutesPerWeek)}},
		{"seconds truncated", mon(0, 9, 0).Add(59 * time.Second), mon(0, 9, 30).Add(30 * time.Second), []models.Interval{iv(540, 570)}},
		{"reversed", mon(0, 10, 0), mon(0, 9, 0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FoldWeek(tt.start, tt.end, utc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FoldWeek(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestFoldWeek_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 14:00 UTC Monday is 09:00 in UTC-5.
	start := time.Date(2025, 5, 12, 14, 0, 0, 0, time.UTC)
	got := FoldWeek(start, start.Add(time.Hour), loc)
	want := []models.Interval{iv(540, 600)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FoldWeek in UTC-5 = %v, want %v", got, want)
	}
}

func TestWeekFree(t *testing.T) {
	if got := WeekFree(nil, time.UTC); got != nil {
		t.Errorf("WeekFree(nil) = %v, want nil", got)
	}

	events := []models.Event{
		{Title: "Sync", StartDate: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC)},
	}
	if got := WeekBusy(events, time.UTC); !reflect.DeepEqual(got, []models.Interval{iv(540, 600)}) {
		t.Errorf("WeekBusy = %v", got)
	}
	want := []models.Interval{iv(0, 540), iv(600, MinutesPerWeek)}
	if got := WeekFree(events, time.UTC); !reflect.DeepEqual(got, want) {
		t.Errorf("WeekFree = %v, want %v", got, want)
	}

	// same weekday in a later week folds to the same minutes
	events = append(events, models.Event{
		StartDate: time.Date(2025, 5, 19, 9, 30, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 5, 19, 11, 0, 0, 0, time.UTC),
	})
	want = []models.Interval{iv(0, 540), iv(660, MinutesPerWeek)}
	if got := WeekFree(events, time.UTC); !reflect.DeepEqual(got, want) {
		t.Errorf("WeekFree two weeks = %v, want %v", got, want)
	}
}

func TestFreeWithin(t *testing.T) {
	from := time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 12, 12, 0, 0, 0, time.UTC)
	h := Between(from, to)

	if got := FreeWithin(nil, h); got != nil {
		t.Errorf("FreeWithin(nil) = %v, want nil", got)
	}

	events := []models.Event{{
		StartDate: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 5, 12, 10, 0, 0, 0, time.UTC),
	}}
	got := FreeWithin(events, h)
	want := []models.Interval{
		iv(h.Start, h.Start+60),
		iv(h.Start+120, h.End),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FreeWithin = %v, want %v", got, want)
	}
}

func TestMinutes(t *testing.T) {
	if got := Minutes(time.Unix(119, 0)); got != 1 {
		t.Errorf("Minutes(119s) = %d, want 1", got)
	}
	if got := Minutes(time.Unix(-1, 0)); got != -1 {
		t.Errorf("Minutes(-1s) = %d, want -1", got)
	}
}
