// Package services holds the attendance context's collaborator ports.
package services

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Roster is the owner and the members who count toward attendance.
type Roster struct {
	OwnerID uuid.UUID
	Members []uuid.UUID
}

// Contains reports whether userID is on the roster.
func (r Roster) Contains(userID uuid.UUID) bool {
	return slices.Contains(r.Members, userID)
}

// RosterProvider looks up a meeting's current roster.
type RosterProvider interface {
	Roster(ctx context.Context, meetingID uuid.UUID) (Roster, error)
}
