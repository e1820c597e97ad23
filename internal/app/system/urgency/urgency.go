// Package urgency classifies pending pieces by how close their desired date
// is. Results are derived from the clock on every call and never stored.
package urgency

import (
	"math"
	"sort"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/models"
)

// Level is the urgency class of a pending piece.
type Level string

const (
	Urgent Level = "urgent"
	Soon   Level = "soon"
	OK     Level = "ok"
)

// Thresholds in whole days remaining.
const (
	UrgentWithinDays = 2
	SoonWithinDays   = 5
)

const day = 24 * time.Hour

// DaysRemaining returns ceil((desired - now) / 1 day). Past dates give zero
// or negative values.
func DaysRemaining(desired, now time.Time) int {
	return int(math.Ceil(float64(desired.Sub(now)) / float64(day)))
}

// Classify returns the level and days remaining for a desired date. A piece
// with no desired date is OK and reports ok=false for the day count.
func Classify(desired *time.Time, now time.Time) (level Level, days int, dated bool) {
	if desired == nil {
		return OK, 0, false
	}
	days = DaysRemaining(*desired, now)
	switch {
	case days <= UrgentWithinDays:
		return Urgent, days, true
	case days <= SoonWithinDays:
		return Soon, days, true
	}
	return OK, days, true
}

// rank orders levels most pressing first.
func rank(l Level) int {
	switch l {
	case Urgent:
		return 0
	case Soon:
		return 1
	}
	return 2
}

// Entry is a pending piece decorated with its derived urgency.
type Entry struct {
	models.Piece
	Urgency       Level `json:"urgency"`
	DaysRemaining *int  `json:"daysRemaining"`
}

// Decorate classifies each piece against now.
func Decorate(pieces []models.Piece, now time.Time) []Entry {
	out := make([]Entry, 0, len(pieces))
	for _, p := range pieces {
		level, days, dated := Classify(p.DesiredDate, now)
		e := Entry{Piece: p, Urgency: level}
		if dated {
			d := days
			e.DaysRemaining = &d
		}
		out = append(out, e)
	}
	return out
}

// Sort keys accepted by SortQueue.
const (
	SortByDate    = "date"
	SortByUrgency = "urgency"
	SortByCreated = "created"
)

// IsValidSort reports whether key is a known sort key.
func IsValidSort(key string) bool {
	switch key {
	case SortByDate, SortByUrgency, SortByCreated:
		return true
	}
	return false
}

// SortQueue orders entries in place. Unknown keys fall back to SortByDate.
//
//   - date: desired date ascending, undated pieces last
//   - urgency: urgent, soon, ok; then fewest days remaining
//   - created: creation order
//
// Ties keep their incoming (creation) order.
func SortQueue(entries []Entry, key string) {
	switch key {
	case SortByCreated:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		})
	case SortByUrgency:
		sort.SliceStable(entries, func(i, j int) bool {
			ri, rj := rank(entries[i].Urgency), rank(entries[j].Urgency)
			if ri != rj {
				return ri < rj
			}
			return lessDays(entries[i].DaysRemaining, entries[j].DaysRemaining)
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return lessDate(entries[i].DesiredDate, entries[j].DesiredDate)
		})
	}
}

func lessDays(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return *a < *b
}

func lessDate(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	return a.Before(*b)
}

// Counts tallies pending entries per level.
type Counts struct {
	Urgent int `json:"urgent"`
	Soon   int `json:"soon"`
	OK     int `json:"ok"`
}

// Tally counts entries by level.
func Tally(entries []Entry) Counts {
	var c Counts
	for _, e := range entries {
		switch e.Urgency {
		case Urgent:
			c.Urgent++
		case Soon:
			c.Soon++
		default:
			c.OK++
		}
	}
	return c
}
