// Package interval merges time ranges into busy blocks and derives the free
// blocks left over inside a bounded horizon.
//
// All arithmetic is on whole minutes. Intervals are closed on both ends, so two
// ranges that share an endpoint merge into one busy block.
//
// Stored free time is week-relative: minute 0 is Monday 00:00 and the horizon
// ends at MinutesPerWeek. Absolute ranges (minutes since the Unix epoch) use an
// explicit Horizon built with Between.
package interval

import (
	"sort"
	"time"

	"github.com/dalemusser/groupsched/internal/domain/models"
)

const (
	MinutesPerDay  = 24 * 60
	MinutesPerWeek = 7 * MinutesPerDay
)

// Horizon is the half-open window [Start, End) that free time is computed in.
type Horizon struct {
	Start int64
	End   int64
}

// Week is the default horizon for cached free time.
var Week = Horizon{Start: 0, End: MinutesPerWeek}

// Between returns the absolute horizon covering [from, to).
func Between(from, to time.Time) Horizon {
	return Horizon{Start: Minutes(from), End: Minutes(to)}
}

// Minutes converts t to whole minutes since the Unix epoch, rounding down.
func Minutes(t time.Time) int64 {
	sec := t.Unix()
	if sec < 0 && sec%60 != 0 {
		return sec/60 - 1
	}
	return sec / 60
}

// Merge returns the minimal sorted set of disjoint intervals covering the input.
// The input slice is not modified.
func Merge(in []models.Interval) []models.Interval {
	if len(in) == 0 {
		return nil
	}

	sorted := make([]models.Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := make([]models.Interval, 0, len(sorted))
	running := sorted[0]
	for _, next := range sorted[1:] {
		if running.End >= next.Start {
			if next.End > running.End {
				running.End = next.End
			}
			continue
		}
		out = append(out, running)
		running = next
	}
	return append(out, running)
}

// Free returns the gaps between the busy intervals inside h.
//
// Busy intervals are clipped to h and merged first. An empty busy set yields an
// empty result; a busy set that lies entirely outside h yields the whole horizon.
func Free(busy []models.Interval, h Horizon) []models.Interval {
	if len(busy) == 0 || h.End <= h.Start {
		return nil
	}

	clipped := make([]models.Interval, 0, len(busy))
	for _, b := range busy {
		s, e := b.Start, b.End
		if s < h.Start {
			s = h.Start
		}
		if e > h.End {
			e = h.End
		}
		if s > e || s >= h.End {
			continue
		}
		clipped = append(clipped, models.Interval{Start: s, End: e})
	}

	var free []models.Interval
	cursor := h.Start
	for _, b := range Merge(clipped) {
		if b.Start > cursor {
			free = append(free, models.Interval{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < h.End {
		free = append(free, models.Interval{Start: cursor, End: h.End})
	}
	return free
}

// MinuteOfWeek returns t's wall-clock offset from Monday 00:00 in loc.
func MinuteOfWeek(t time.Time, loc *time.Location) int64 {
	t = t.In(loc)
	day := (int64(t.Weekday()) + 6) % 7
	return day*MinutesPerDay + int64(t.Hour())*60 + int64(t.Minute())
}

// FoldWeek maps the absolute range [start, end] onto week-relative minutes.
//
// A range that crosses Sunday midnight wraps into two intervals. A range of a
// week or more covers the whole week.
func FoldWeek(start, end time.Time, loc *time.Location) []models.Interval {
	start = start.Truncate(time.Minute)
	end = end.Truncate(time.Minute)
	dur := int64(end.Sub(start) / time.Minute)
	if dur < 0 {
		return nil
	}
	if dur >= MinutesPerWeek {
		return []models.Interval{{Start: 0, End: MinutesPerWeek}}
	}

	off := MinuteOfWeek(start, loc)
	stop := off + dur
	if stop <= MinutesPerWeek {
		return []models.Interval{{Start: off, End: stop}}
	}
	return []models.Interval{
		{Start: off, End: MinutesPerWeek},
		{Start: 0, End: stop - MinutesPerWeek},
	}
}

// WeekBusy folds every event onto the week and merges the result.
func WeekBusy(events []models.Event, loc *time.Location) []models.Interval {
	var folded []models.Interval
	for _, ev := range events {
		folded = append(folded, FoldWeek(ev.StartDate, ev.EndDate, loc)...)
	}
	return Merge(folded)
}

// WeekFree is the week-relative free time left by events.
func WeekFree(events []models.Event, loc *time.Location) []models.Interval {
	if len(events) == 0 {
		return nil
	}
	return Free(WeekBusy(events, loc), Week)
}

// Busy converts events to absolute minute intervals and merges them.
func Busy(events []models.Event) []models.Interval {
	busy := make([]models.Interval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, models.Interval{Start: Minutes(ev.StartDate), End: Minutes(ev.EndDate)})
	}
	return Merge(busy)
}

// FreeWithin is the free time left by events inside an absolute horizon.
func FreeWithin(events []models.Event, h Horizon) []models.Interval {
	if len(events) == 0 {
		return nil
	}
	return Free(Busy(events), h)
}
