package schedule_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/interval"
	"github.com/dalemusser/groupsched/internal/domain/models"
)

func TestFreeTimeBetween(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "alice1", "bob01")
	h.groupWith(t, 123456, "alice1", "bob01")

	if _, err := h.svc.AddPersonalEvent(h.ctx, "bob01", models.EventInput{
		Title: "Lunch", StartDate: "2025-05-12T12:00", EndDate: "2025-05-12T13:00", Description: "cafe",
	}); err != nil {
		t.Fatalf("AddPersonalEvent: %v", err)
	}

	from := time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 12, 18, 0, 0, 0, time.UTC)
	base := interval.Minutes(from)

	free, err := h.svc.FreeTimeBetween(h.ctx, schedule.Owner{PIN: 123456}, from, to)
	if err != nil {
		t.Fatalf("FreeTimeBetween: %v", err)
	}
	want := []models.Interval{iv(base, base+240), iv(base+300, base+600)}
	if !reflect.DeepEqual(free, want) {
		t.Errorf("group free = %v, want %v", free, want)
	}

	// alice has no events
	free, err = h.svc.FreeTimeBetween(h.ctx, schedule.Owner{UserID: "alice1"}, from, to)
	if err != nil {
		t.Fatalf("FreeTimeBetween: %v", err)
	}
	if len(free) != 0 {
		t.Errorf("alice free = %v, want empty", free)
	}

	if _, err := h.svc.FreeTimeBetween(h.ctx, schedule.Owner{PIN: 123456}, to, from); !inputval.IsValidation(err) {
		t.Errorf("reversed range err = %v", err)
	}
	if _, err := h.svc.FreeTimeBetween(h.ctx, schedule.Owner{PIN: 123456}, from, from.AddDate(2, 0, 0)); !inputval.IsValidation(err) {
		t.Errorf("oversized range err = %v", err)
	}
}

func TestWeeklyAvailability(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "alice1")
	h.groupWith(t, 123456, "alice1")

	if _, err := h.svc.GroupAddEvent(h.ctx, 123456, models.EventInput{
		Title: "Sync", StartDate: "2025-05-19T09:00", EndDate: "2025-05-19T10:00", Description: "next week",
	}); err != nil {
		t.Fatalf("GroupAddEvent: %v", err)
	}

	weeks, err := h.svc.WeeklyAvailability(h.ctx, 123456, fixedNow, 2)
	if err != nil {
		t.Fatalf("WeeklyAvailability: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("weeks = %d, want 2", len(weeks))
	}

	monday := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	if !weeks[0].WeekStart.Equal(monday) || !weeks[1].WeekStart.Equal(monday.AddDate(0, 0, 7)) {
		t.Errorf("week starts = %v, %v", weeks[0].WeekStart, weeks[1].WeekStart)
	}

	// the event is only in the second week
	if want := []models.Interval{iv(0, interval.MinutesPerWeek)}; !reflect.DeepEqual(weeks[0].Free, want) {
		t.Errorf("week 1 free = %v, want %v", weeks[0].Free, want)
	}
	want := []models.Interval{iv(0, 540), iv(600, interval.MinutesPerWeek)}
	if !reflect.DeepEqual(weeks[1].Free, want) {
		t.Errorf("week 2 free = %v, want %v", weeks[1].Free, want)
	}

	if _, err := h.svc.WeeklyAvailability(h.ctx, 123456, fixedNow, 0); !inputval.IsValidation(err) {
		t.Errorf("zero weeks err = %v", err)
	}
}

func TestExportICS(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "alice1")
	h.groupWith(t, 123456, "alice1")

	ev, err := h.svc.GroupAddEvent(h.ctx, 123456, models.EventInput{
		Title: "Sync", StartDate: "2025-05-12T09:00", EndDate: "2025-05-12T10:00", Description: "weekly",
	})
	if err != nil {
		t.Fatalf("GroupAddEvent: %v", err)
	}
	task, err := h.svc.GroupAddTask(h.ctx, 123456, "alice1", models.TaskInput{
		Progress: "not started", StartDate: "2025-05-13", EndDate: "2025-05-13", UrgencyLevel: 5, Description: "notes",
	})
	if err != nil {
		t.Fatalf("GroupAddTask: %v", err)
	}

	out, err := h.svc.ExportICS(h.ctx, schedule.Owner{PIN: 123456})
	if err != nil {
		t.Fatalf("ExportICS: %v", err)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "Study Group", "SUMMARY:Sync", ev.ID.Hex(), task.ID.Hex()} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	personal, err := h.svc.ExportICS(h.ctx, schedule.Owner{UserID: "alice1"})
	if err != nil {
		t.Fatalf("ExportICS personal: %v", err)
	}
	if !strings.Contains(personal, "Test User") || !strings.Contains(personal, ev.ID.Hex()) {
		t.Errorf("personal feed = %s", personal)
	}
}
