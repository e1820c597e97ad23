package urgency

import (
	"testing"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/models"
)

var now = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		desired *time.Time
		want    Level
		days    int
	}{
		{"one day", at(24 * time.Hour), Urgent, 1},
		{"four days", at(4 * 24 * time.Hour), Soon, 4},
		{"ten days", at(10 * 24 * time.Hour), OK, 10},
		{"exactly two days", at(2 * 24 * time.Hour), Urgent, 2},
		{"just over two days", at(2*24*time.Hour + time.Minute), Soon, 3},
		{"exactly five days", at(5 * 24 * time.Hour), Soon, 5},
		{"just over five days", at(5*24*time.Hour + time.Second), OK, 6},
		{"an hour from now", at(time.Hour), Urgent, 1},
		{"right now", at(0), Urgent, 0},
		{"overdue", at(-3 * 24 * time.Hour), Urgent, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, days, dated := Classify(tt.desired, now)
			if level != tt.want {
				t.Errorf("level: got %q, want %q", level, tt.want)
			}
			if days != tt.days {
				t.Errorf("days: got %d, want %d", days, tt.days)
			}
			if !dated {
				t.Error("expected dated=true")
			}
		})
	}
}

func TestClassify_NoDesiredDate(t *testing.T) {
	level, _, dated := Classify(nil, now)
	if level != OK {
		t.Errorf("level: got %q, want %q", level, OK)
	}
	if dated {
		t.Error("expected dated=false")
	}
}

func TestDecorate_RecomputesAgainstNow(t *testing.T) {
	pieces := []models.Piece{{ID: 1, DesiredDate: at(4 * 24 * time.Hour)}}

	if got := Decorate(pieces, now)[0].Urgency; got != Soon {
		t.Errorf("today: got %q, want %q", got, Soon)
	}
	later := now.Add(3 * 24 * time.Hour)
	if got := Decorate(pieces, later)[0].Urgency; got != Urgent {
		t.Errorf("three days later: got %q, want %q", got, Urgent)
	}
}

func TestSortQueue(t *testing.T) {
	base := now.Add(-time.Hour)
	pieces := []models.Piece{
		{ID: 1, CreatedAt: base, DesiredDate: at(10 * 24 * time.Hour)},
		{ID: 2, CreatedAt: base.Add(time.Minute)},
		{ID: 3, CreatedAt: base.Add(2 * time.Minute), DesiredDate: at(24 * time.Hour)},
		{ID: 4, CreatedAt: base.Add(3 * time.Minute), DesiredDate: at(4 * 24 * time.Hour)},
	}

	tests := []struct {
		key  string
		want []int64
	}{
		{SortByDate, []int64{3, 4, 1, 2}},
		{SortByUrgency, []int64{3, 4, 1, 2}},
		{SortByCreated, []int64{1, 2, 3, 4}},
		{"bogus", []int64{3, 4, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			entries := Decorate(pieces, now)
			SortQueue(entries, tt.key)
			for i, e := range entries {
				if e.ID != tt.want[i] {
					t.Fatalf("position %d: got %d, want %d", i, e.ID, tt.want[i])
				}
			}
		})
	}
}

func TestTally(t *testing.T) {
	pieces := []models.Piece{
		{ID: 1, DesiredDate: at(24 * time.Hour)},
		{ID: 2, DesiredDate: at(3 * 24 * time.Hour)},
		{ID: 3, DesiredDate: at(30 * 24 * time.Hour)},
		{ID: 4},
	}
	got := Tally(Decorate(pieces, now))
	want := Counts{Urgent: 1, Soon: 1, OK: 2}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestIsValidSort(t *testing.T) {
	for _, key := range []string{SortByDate, SortByUrgency, SortByCreated} {
		if !IsValidSort(key) {
			t.Errorf("IsValidSort(%q) = false", key)
		}
	}
	if IsValidSort("title") {
		t.Error(`IsValidSort("title") = true`)
	}
}
