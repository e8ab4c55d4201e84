package domain

import (
	"math"

	"github.com/google/uuid"
)

// Statistics summarizes a meeting's finalized sessions.
type Statistics struct {
	TotalSessions      int    `json:"total_sessions"`
	AverageRatePercent int    `json:"average_rate_percent"`
	BestRatePercent    int    `json:"best_rate_percent"`
	TotalAttendances   int    `json:"total_attendances"`
	LastSessionDate    string `json:"last_session_date,omitempty"`
}

// Summarize computes statistics over records in any order. No records
// yields the zero value.
func Summarize(records []HistoryRecord) Statistics {
	if len(records) == 0 {
		return Statistics{}
	}

	var stats Statistics
	var rateSum float64
	for _, rec := range records {
		stats.TotalSessions++
		stats.TotalAttendances += rec.AttendedCount()
		if total := rec.TotalParticipants(); total > 0 {
			rateSum += float64(rec.AttendedCount()) / float64(total) * 100
		}
		stats.BestRatePercent = max(stats.BestRatePercent, rec.RatePercent())
		if rec.Date > stats.LastSessionDate {
			stats.LastSessionDate = rec.Date
		}
	}
	stats.AverageRatePercent = int(math.Round(rateSum / float64(stats.TotalSessions)))
	return stats
}

// UserAttendance is one date of a user's attendance history.
type UserAttendance struct {
	Date     string `json:"date"`
	Attended bool   `json:"attended"`
}

// UserHistory lists, for every record in the given order, whether userID
// attended.
func UserHistory(records []HistoryRecord, userID uuid.UUID) []UserAttendance {
	out := make([]UserAttendance, 0, len(records))
	for _, rec := range records {
		out = append(out, UserAttendance{Date: rec.Date, Attended: rec.Attended(userID)})
	}
	return out
}

// UserRate is the share of all sessions userID attended, 0 with no sessions.
func UserRate(records []HistoryRecord, userID uuid.UUID) int {
	attended := 0
	for _, rec := range records {
		if rec.Attended(userID) {
			attended++
		}
	}
	return ratePercent(attended, len(records))
}

// MemberRate is a roster member's attendance across all sessions.
type MemberRate struct {
	UserID           uuid.UUID `json:"user_id"`
	AttendedCount    int       `json:"attended_count"`
	TotalSessions    int       `json:"total_sessions"`
	RatePercent      int       `json:"rate_percent"`
	LastAttendedDate string    `json:"last_attended_date,omitempty"`
}

// MemberRates computes a MemberRate for each roster member, in roster order.
func MemberRates(records []HistoryRecord, roster []uuid.UUID) []MemberRate {
	rates := make([]MemberRate, 0, len(roster))
	for _, userID := range roster {
		rate := MemberRate{UserID: userID, TotalSessions: len(records)}
		for _, rec := range records {
			if !rec.Attended(userID) {
				continue
			}
			rate.AttendedCount++
			if rec.Date > rate.LastAttendedDate {
				rate.LastAttendedDate = rec.Date
			}
		}
		rate.RatePercent = ratePercent(rate.AttendedCount, rate.TotalSessions)
		rates = append(rates, rate)
	}
	return rates
}
