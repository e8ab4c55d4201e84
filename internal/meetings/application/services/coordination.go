package services

import (
	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/google/uuid"
)

// HeatLevel buckets a slot by the share of the roster available in it.
type HeatLevel string

const (
	HeatNone    HeatLevel = "none"
	HeatMinimal HeatLevel = "minimal"
	HeatLow     HeatLevel = "low"
	HeatMedium  HeatLevel = "medium"
	HeatHigh    HeatLevel = "high"
	HeatFull    HeatLevel = "full"
)

// HeatLevelFor classifies count out of total at 100/80/60/40/20 percent.
func HeatLevelFor(count, total int) HeatLevel {
	if total <= 0 || count <= 0 {
		return HeatNone
	}
	share := float64(count) / float64(total)
	switch {
	case share >= 1:
		return HeatFull
	case share >= 0.8:
		return HeatHigh
	case share >= 0.6:
		return HeatMedium
	case share >= 0.4:
		return HeatLow
	case share >= 0.2:
		return HeatMinimal
	default:
		return HeatNone
	}
}

// HeatCell is one slot of the coordination heat map.
type HeatCell struct {
	Slot    domain.SlotID `json:"slot"`
	SlotKey string        `json:"slot_key"`
	Count   int           `json:"count"`
	Level   HeatLevel     `json:"level"`
}

// ParticipantSummary describes how much of the grid a participant covered.
type ParticipantSummary struct {
	UserID                  uuid.UUID   `json:"user_id"`
	Role                    domain.Role `json:"role"`
	SlotCount               int         `json:"slot_count"`
	AvailabilityRatePercent int         `json:"availability_rate_percent"`
}

// Coordination is the read model behind the availability grid.
type Coordination struct {
	TotalParticipants    int                  `json:"total_participants"`
	RespondedCount       int                  `json:"responded_count"`
	CoordinationRate     int                  `json:"coordination_rate_percent"`
	Cells                []HeatCell           `json:"cells"`
	ParticipantSummaries []ParticipantSummary `json:"participants"`
}

// Summarize builds the coordination view for a meeting.
func Summarize(grid domain.SlotGrid, meeting *domain.Meeting) Coordination {
	total := meeting.TotalParticipants()
	responded := len(meeting.ParticipantsWithAnySelection())
	counts := meeting.SlotCounts()

	cells := make([]HeatCell, 0, len(counts))
	for _, slot := range grid.All() {
		count := counts[slot]
		if count == 0 {
			continue
		}
		cells = append(cells, HeatCell{
			Slot:    slot,
			SlotKey: grid.Key(slot),
			Count:   count,
			Level:   HeatLevelFor(count, total),
		})
	}

	summaries := make([]ParticipantSummary, 0, len(meeting.Participants()))
	for _, p := range meeting.Participants() {
		slotCount := len(meeting.Availability(p.UserID))
		summaries = append(summaries, ParticipantSummary{
			UserID:                  p.UserID,
			Role:                    p.Role,
			SlotCount:               slotCount,
			AvailabilityRatePercent: RatePercent(slotCount, grid.Size()),
		})
	}

	return Coordination{
		TotalParticipants:    total,
		RespondedCount:       responded,
		CoordinationRate:     RatePercent(responded, total),
		Cells:                cells,
		ParticipantSummaries: summaries,
	}
}
