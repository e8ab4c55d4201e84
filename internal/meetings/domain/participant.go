package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a participant's standing in a meeting.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleApproved Role = "approved"
	RolePending  Role = "pending"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleApproved, RolePending:
		return true
	default:
		return false
	}
}

// CountsTowardRoster reports whether the role is part of availability
// denominators and attendance rosters.
func (r Role) CountsTowardRoster() bool {
	switch r {
	case RoleOwner, RoleApproved:
		return true
	case RolePending:
		return false
	default:
		return false
	}
}

// RecruitmentStatus controls whether a meeting accepts join requests.
type RecruitmentStatus string

const (
	StatusOpen   RecruitmentStatus = "open"
	StatusClosed RecruitmentStatus = "closed"
	StatusFull   RecruitmentStatus = "full"
)

// IsValid checks if the status is known.
func (s RecruitmentStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusFull:
		return true
	default:
		return false
	}
}

// AcceptsRequests reports whether new join requests may be sent.
func (s RecruitmentStatus) AcceptsRequests() bool {
	switch s {
	case StatusOpen:
		return true
	case StatusClosed, StatusFull:
		return false
	default:
		return false
	}
}

// Participant is a user attached to a meeting.
type Participant struct {
	UserID   uuid.UUID
	Role     Role
	JoinedAt time.Time
}
