package services

import (
	"math"
	"sort"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
)

// Suggestion is a ranked candidate time derived from current availability.
// It is recomputed on every query and never stored.
type Suggestion struct {
	StartSlot               domain.SlotID `json:"start_slot"`
	SlotKey                 string        `json:"slot_key"`
	RunLength               int           `json:"run_length"`
	AvailableCount          int           `json:"available_count"`
	TotalParticipants       int           `json:"total_participants"`
	AvailabilityRatePercent int           `json:"availability_rate_percent"`
	IsConsecutive           bool          `json:"is_consecutive"`
	Weekday                 string        `json:"weekday"`
	StartTime               string        `json:"start_time"`
	EndTime                 string        `json:"end_time"`
}

// OptimalTimeCalculator merges roster availability into ranked suggestions.
type OptimalTimeCalculator struct {
	grid domain.SlotGrid
}

// NewOptimalTimeCalculator creates a calculator over grid.
func NewOptimalTimeCalculator(grid domain.SlotGrid) *OptimalTimeCalculator {
	return &OptimalTimeCalculator{grid: grid}
}

// ComputeSuggestions returns every suggestion for the meeting, ranked.
//
// Within a day, maximal runs of adjacent slots sharing exactly the same
// non-zero count become one consecutive suggestion when longer than one slot.
// Consecutive suggestions rank first by (rate desc, run length desc), then
// single slots by rate desc; remaining ties fall back to slot order.
func (c *OptimalTimeCalculator) ComputeSuggestions(meeting *domain.Meeting) []Suggestion {
	total := meeting.TotalParticipants()
	if total == 0 {
		return []Suggestion{}
	}

	counts := meeting.SlotCounts()
	consecutive := make([]Suggestion, 0)
	singles := make([]Suggestion, 0)

	for day := 0; day < domain.DaysPerWeek; day++ {
		slots := c.grid.SlotsForDay(day)
		for i := 0; i < len(slots); {
			count := counts[slots[i]]
			if count == 0 {
				i++
				continue
			}

			end := i + 1
			for end < len(slots) && counts[slots[end]] == count {
				end++
			}

			suggestion := c.newSuggestion(slots[i], end-i, count, total)
			if suggestion.IsConsecutive {
				consecutive = append(consecutive, suggestion)
			} else {
				singles = append(singles, suggestion)
			}
			i = end
		}
	}

	sort.SliceStable(consecutive, func(i, j int) bool {
		a, b := consecutive[i], consecutive[j]
		if a.AvailabilityRatePercent != b.AvailabilityRatePercent {
			return a.AvailabilityRatePercent > b.AvailabilityRatePercent
		}
		if a.RunLength != b.RunLength {
			return a.RunLength > b.RunLength
		}
		return a.StartSlot.Less(b.StartSlot)
	})
	sort.SliceStable(singles, func(i, j int) bool {
		a, b := singles[i], singles[j]
		if a.AvailabilityRatePercent != b.AvailabilityRatePercent {
			return a.AvailabilityRatePercent > b.AvailabilityRatePercent
		}
		return a.StartSlot.Less(b.StartSlot)
	})

	return append(consecutive, singles...)
}

func (c *OptimalTimeCalculator) newSuggestion(start domain.SlotID, runLength, count, total int) Suggestion {
	return Suggestion{
		StartSlot:               start,
		SlotKey:                 c.grid.Key(start),
		RunLength:               runLength,
		AvailableCount:          count,
		TotalParticipants:       total,
		AvailabilityRatePercent: RatePercent(count, total),
		IsConsecutive:           runLength >= 2,
		Weekday:                 c.grid.Weekday(start.Day).String(),
		StartTime:               c.grid.StartTime(start),
		EndTime:                 c.grid.EndTime(start, runLength),
	}
}

// RatePercent returns part/total as a whole percentage, 0 when total is 0.
func RatePercent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
