package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DaysPerWeek is the number of coordinated weekdays (Monday to Friday).
const DaysPerWeek = 5

// SlotID identifies one fixed-granularity interval of the weekly grid.
type SlotID struct {
	Day   int `json:"day"`
	Index int `json:"index"`
}

// Compare orders slots by day, then by index within the day.
func (s SlotID) Compare(other SlotID) int {
	switch {
	case s.Day < other.Day:
		return -1
	case s.Day > other.Day:
		return 1
	case s.Index < other.Index:
		return -1
	case s.Index > other.Index:
		return 1
	default:
		return 0
	}
}

// Less reports whether s sorts before other.
func (s SlotID) Less(other SlotID) bool {
	return s.Compare(other) < 0
}

// SortSlots sorts slots in grid order.
func SortSlots(slots []SlotID) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Less(slots[j]) })
}

// SlotGrid defines the discrete slot space: five weekdays of equally sized
// slots covering [start, end) of each day.
type SlotGrid struct {
	start       time.Duration
	end         time.Duration
	granularity time.Duration
}

// NewSlotGrid builds a grid from day offsets. The window must be a whole
// number of granularity steps.
func NewSlotGrid(start, end, granularity time.Duration) (SlotGrid, error) {
	if granularity <= 0 || granularity%time.Minute != 0 {
		return SlotGrid{}, fmt.Errorf("%w: granularity must be a positive number of minutes", ErrInvalidSlotGrid)
	}
	if start < 0 || end > 24*time.Hour || end <= start {
		return SlotGrid{}, fmt.Errorf("%w: window must be within one day", ErrInvalidSlotGrid)
	}
	if (end-start)%granularity != 0 {
		return SlotGrid{}, fmt.Errorf("%w: window is not a multiple of %s", ErrInvalidSlotGrid, granularity)
	}
	return SlotGrid{start: start, end: end, granularity: granularity}, nil
}

// DefaultSlotGrid is 09:00 to 23:00 in 30 minute steps (28 slots a day).
func DefaultSlotGrid() SlotGrid {
	return SlotGrid{start: 9 * time.Hour, end: 23 * time.Hour, granularity: 30 * time.Minute}
}

func (g SlotGrid) Start() time.Duration       { return g.start }
func (g SlotGrid) End() time.Duration         { return g.end }
func (g SlotGrid) Granularity() time.Duration { return g.granularity }

// SlotsPerDay returns N, the number of slots in one day.
func (g SlotGrid) SlotsPerDay() int {
	if g.granularity <= 0 {
		return 0
	}
	return int((g.end - g.start) / g.granularity)
}

// Size returns the number of slots in the whole grid.
func (g SlotGrid) Size() int {
	return DaysPerWeek * g.SlotsPerDay()
}

// Contains reports whether the slot lies inside the grid.
func (g SlotGrid) Contains(s SlotID) bool {
	return s.Day >= 0 && s.Day < DaysPerWeek && s.Index >= 0 && s.Index < g.SlotsPerDay()
}

// SlotsForDay returns the day's slots in strictly increasing order.
func (g SlotGrid) SlotsForDay(day int) []SlotID {
	if day < 0 || day >= DaysPerWeek {
		return nil
	}
	n := g.SlotsPerDay()
	slots := make([]SlotID, n)
	for i := 0; i < n; i++ {
		slots[i] = SlotID{Day: day, Index: i}
	}
	return slots
}

// All returns every slot of the grid in order.
func (g SlotGrid) All() []SlotID {
	slots := make([]SlotID, 0, g.Size())
	for day := 0; day < DaysPerWeek; day++ {
		slots = append(slots, g.SlotsForDay(day)...)
	}
	return slots
}

// StartOffset returns the slot start as an offset from midnight.
func (g SlotGrid) StartOffset(s SlotID) time.Duration {
	return g.start + time.Duration(s.Index)*g.granularity
}

// StartTime returns the slot start as HH:MM.
func (g SlotGrid) StartTime(s SlotID) string {
	return FormatClock(g.StartOffset(s))
}

// EndTime returns the end of a run of runLength slots starting at s.
func (g SlotGrid) EndTime(s SlotID, runLength int) string {
	if runLength < 1 {
		runLength = 1
	}
	return FormatClock(g.StartOffset(s) + time.Duration(runLength)*g.granularity)
}

// Weekday maps a grid day index to its calendar weekday.
func (g SlotGrid) Weekday(day int) time.Weekday {
	return time.Monday + time.Weekday(day)
}

// SlotKey returns the canonical key "<day>-<HH>-<MM>" used to store a slot.
func (g SlotGrid) SlotKey(day, index int) string {
	offset := g.StartOffset(SlotID{Day: day, Index: index})
	return fmt.Sprintf("%d-%02d-%02d", day, int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

// Key is SlotKey for an existing SlotID.
func (g SlotGrid) Key(s SlotID) string {
	return g.SlotKey(s.Day, s.Index)
}

// ParseSlotKey resolves a canonical key back to a slot of this grid.
func (g SlotGrid) ParseSlotKey(key string) (SlotID, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}
	day, errDay := strconv.Atoi(parts[0])
	hour, errHour := strconv.Atoi(parts[1])
	minute, errMinute := strconv.Atoi(parts[2])
	if errDay != nil || errHour != nil || errMinute != nil || minute < 0 || minute > 59 {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}

	offset := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	if offset < g.start || (offset-g.start)%g.granularity != 0 {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}
	slot := SlotID{Day: day, Index: int((offset - g.start) / g.granularity)}
	if !g.Contains(slot) {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}
	return slot, nil
}

// ParseSlotKeys parses a list of keys, failing on the first invalid one.
func (g SlotGrid) ParseSlotKeys(keys []string) ([]SlotID, error) {
	slots := make([]SlotID, 0, len(keys))
	for _, key := range keys {
		slot, err := g.ParseSlotKey(key)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
