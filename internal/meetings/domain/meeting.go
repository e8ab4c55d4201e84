package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/huddle/internal/shared/domain"
	"github.com/google/uuid"
)

// Meeting is a group coordinating a shared time. It owns the roster, each
// participant's slot selection and the committed schedules.
type Meeting struct {
	sharedDomain.BaseAggregateRoot
	ownerID         uuid.UUID
	title           string
	description     string
	location        string
	maxParticipants int
	status          RecruitmentStatus
	participants    []Participant
	availability    map[uuid.UUID][]SlotID
	suggested       *SuggestedSchedule
	recurring       *RecurringSchedule
}

// NewMeeting creates an open meeting with the owner as its first participant.
func NewMeeting(ownerID uuid.UUID, title, description, location string, maxParticipants int) (*Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrMeetingEmptyTitle
	}
	if maxParticipants < 1 {
		return nil, ErrInvalidMaxParticipants
	}

	meeting := &Meeting{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		ownerID:           ownerID,
		title:             title,
		description:       strings.TrimSpace(description),
		location:          strings.TrimSpace(location),
		maxParticipants:   maxParticipants,
		status:            StatusOpen,
		availability:      make(map[uuid.UUID][]SlotID),
	}
	meeting.participants = []Participant{{UserID: ownerID, Role: RoleOwner, JoinedAt: meeting.CreatedAt()}}

	meeting.AddDomainEvent(NewMeetingCreated(meeting))
	return meeting, nil
}

// Getters
func (m *Meeting) OwnerID() uuid.UUID        { return m.ownerID }
func (m *Meeting) Title() string             { return m.title }
func (m *Meeting) Description() string       { return m.description }
func (m *Meeting) Location() string          { return m.location }
func (m *Meeting) MaxParticipants() int      { return m.maxParticipants }
func (m *Meeting) Status() RecruitmentStatus { return m.status }

// IsOwner reports whether userID owns the meeting.
func (m *Meeting) IsOwner(userID uuid.UUID) bool {
	return m.ownerID == userID
}

// EnsureOwner returns ErrNotOwner unless actor owns the meeting.
func (m *Meeting) EnsureOwner(actor uuid.UUID) error {
	if !m.IsOwner(actor) {
		return ErrNotOwner
	}
	return nil
}

// Participants returns every participant, pending requests included.
func (m *Meeting) Participants() []Participant {
	out := make([]Participant, len(m.participants))
	copy(out, m.participants)
	return out
}

// Participant looks up a user's participation.
func (m *Meeting) Participant(userID uuid.UUID) (Participant, bool) {
	for _, p := range m.participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// Roster returns owner and approved participant ids in join order.
func (m *Meeting) Roster() []uuid.UUID {
	roster := make([]uuid.UUID, 0, len(m.participants))
	for _, p := range m.participants {
		if p.Role.CountsTowardRoster() {
			roster = append(roster, p.UserID)
		}
	}
	return roster
}

// IsRosterMember reports whether userID is the owner or an approved participant.
func (m *Meeting) IsRosterMember(userID uuid.UUID) bool {
	p, ok := m.Participant(userID)
	return ok && p.Role.CountsTowardRoster()
}

// TotalParticipants is the roster size.
func (m *Meeting) TotalParticipants() int {
	return len(m.Roster())
}

// PendingRequests returns participants awaiting approval.
func (m *Meeting) PendingRequests() []Participant {
	var pending []Participant
	for _, p := range m.participants {
		if p.Role == RolePending {
			pending = append(pending, p)
		}
	}
	return pending
}

// UpdateStatus changes the recruitment status.
func (m *Meeting) UpdateStatus(actor uuid.UUID, status RecruitmentStatus) error {
	if err := m.EnsureOwner(actor); err != nil {
		return err
	}
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	m.setStatus(status)
	return nil
}

func (m *Meeting) setStatus(status RecruitmentStatus) {
	if m.status == status {
		return
	}
	previous := m.status
	m.status = status
	m.Touch()
	m.AddDomainEvent(NewStatusChanged(m, previous))
}

// RequestToJoin adds userID as a pending participant.
func (m *Meeting) RequestToJoin(userID uuid.UUID, at time.Time) error {
	if !m.status.AcceptsRequests() {
		return ErrRecruitmentClosed
	}
	if _, ok := m.Participant(userID); ok {
		return ErrAlreadyParticipant
	}
	m.participants = append(m.participants, Participant{UserID: userID, Role: RolePending, JoinedAt: at})
	m.Touch()
	m.AddDomainEvent(NewJoinRequested(m, userID))
	return nil
}

// CancelJoinRequest withdraws userID's own pending request.
func (m *Meeting) CancelJoinRequest(userID uuid.UUID) error {
	p, ok := m.Participant(userID)
	if !ok || p.Role != RolePending {
		return ErrJoinRequestNotFound
	}
	m.removeParticipant(userID, "cancelled")
	return nil
}

// ApproveJoinRequest promotes a pending participant into the roster. The
// meeting switches to full once the roster reaches its limit.
func (m *Meeting) ApproveJoinRequest(actor, userID uuid.UUID, at time.Time) error {
	if err := m.EnsureOwner(actor); err != nil {
		return err
	}
	idx := m.indexOf(userID)
	if idx < 0 || m.participants[idx].Role != RolePending {
		return ErrJoinRequestNotFound
	}
	if m.TotalParticipants() >= m.maxParticipants {
		return ErrMeetingFull
	}

	m.participants[idx].Role = RoleApproved
	m.participants[idx].JoinedAt = at
	m.Touch()
	m.AddDomainEvent(NewParticipantApproved(m, userID))

	if m.TotalParticipants() >= m.maxParticipants && m.status == StatusOpen {
		m.setStatus(StatusFull)
	}
	return nil
}

// RejectJoinRequest drops a pending participant.
func (m *Meeting) RejectJoinRequest(actor, userID uuid.UUID) error {
	if err := m.EnsureOwner(actor); err != nil {
		return err
	}
	p, ok := m.Participant(userID)
	if !ok || p.Role != RolePending {
		return ErrJoinRequestNotFound
	}
	m.removeParticipant(userID, "rejected")
	return nil
}

// Leave removes an approved participant together with their availability.
func (m *Meeting) Leave(userID uuid.UUID) error {
	p, ok := m.Participant(userID)
	if !ok {
		return ErrNotParticipant
	}
	if p.Role == RoleOwner {
		return ErrOwnerCannotLeave
	}
	m.removeParticipant(userID, "left")
	return nil
}

func (m *Meeting) indexOf(userID uuid.UUID) int {
	for i, p := range m.participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (m *Meeting) removeParticipant(userID uuid.UUID, reason string) {
	idx := m.indexOf(userID)
	if idx < 0 {
		return
	}
	m.participants = append(m.participants[:idx], m.participants[idx+1:]...)
	delete(m.availability, userID)
	m.Touch()
	m.AddDomainEvent(NewParticipantRemoved(m, userID, reason))
}

// SetAvailability replaces userID's whole selection. Every slot must lie in
// grid; an empty selection is allowed.
func (m *Meeting) SetAvailability(grid SlotGrid, userID uuid.UUID, slots []SlotID) error {
	if _, ok := m.Participant(userID); !ok {
		return ErrNotParticipant
	}
	for _, slot := range slots {
		if !grid.Contains(slot) {
			return ErrInvalidSlot
		}
	}

	m.availability[userID] = normalizeSlots(slots)
	m.Touch()
	m.AddDomainEvent(NewAvailabilityUpdated(m, userID, len(m.availability[userID])))
	return nil
}

func normalizeSlots(slots []SlotID) []SlotID {
	seen := make(map[SlotID]struct{}, len(slots))
	out := make([]SlotID, 0, len(slots))
	for _, slot := range slots {
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	SortSlots(out)
	return out
}

// Availability returns userID's selection in grid order.
func (m *Meeting) Availability(userID uuid.UUID) []SlotID {
	slots := m.availability[userID]
	out := make([]SlotID, len(slots))
	copy(out, slots)
	return out
}

// HasSelection reports whether userID selected at least one slot.
func (m *Meeting) HasSelection(userID uuid.UUID) bool {
	return len(m.availability[userID]) > 0
}

// SlotCounts returns, for every selected slot, how many roster members chose it.
func (m *Meeting) SlotCounts() map[SlotID]int {
	counts := make(map[SlotID]int)
	for _, userID := range m.Roster() {
		for _, slot := range m.availability[userID] {
			counts[slot]++
		}
	}
	return counts
}

// CountAt returns the number of roster members available at slot.
func (m *Meeting) CountAt(slot SlotID) int {
	count := 0
	for _, userID := range m.Roster() {
		for _, s := range m.availability[userID] {
			if s == slot {
				count++
				break
			}
		}
	}
	return count
}

// ParticipantsWithAnySelection returns roster members with a non-empty selection.
func (m *Meeting) ParticipantsWithAnySelection() []uuid.UUID {
	var out []uuid.UUID
	for _, userID := range m.Roster() {
		if m.HasSelection(userID) {
			out = append(out, userID)
		}
	}
	return out
}

// SuggestedSchedule returns the committed schedule, if any.
func (m *Meeting) SuggestedSchedule() *SuggestedSchedule {
	if m.suggested == nil {
		return nil
	}
	s := *m.suggested
	return &s
}

// RecurringSchedule returns the recurring pattern, if any.
func (m *Meeting) RecurringSchedule() *RecurringSchedule {
	if m.recurring == nil {
		return nil
	}
	r := *m.recurring
	return &r
}

// CommitSuggestedSchedule records the chosen date. Only one may exist.
func (m *Meeting) CommitSuggestedSchedule(actor uuid.UUID, schedule SuggestedSchedule) error {
	if err := m.EnsureOwner(actor); err != nil {
		return err
	}
	if m.suggested != nil {
		return ErrScheduleAlreadyExists
	}
	if err := validateTimeRange(schedule.StartTime, schedule.EndTime); err != nil {
		return err
	}
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}

	m.suggested = &schedule
	m.Touch()
	m.AddDomainEvent(NewSuggestedScheduleCommitted(m, schedule))
	return nil
}

// RemoveSuggestedSchedule clears the committed schedule and returns it.
func (m *Meeting) RemoveSuggestedSchedule(actor uuid.UUID) (SuggestedSchedule, error) {
	if err := m.EnsureOwner(actor); err != nil {
		return SuggestedSchedule{}, err
	}
	if m.suggested == nil {
		return SuggestedSchedule{}, ErrScheduleNotFound
	}

	removed := *m.suggested
	m.suggested = nil
	m.Touch()
	m.AddDomainEvent(NewSuggestedScheduleRemoved(m, removed.ID))
	return removed, nil
}

// SetRecurringSchedule installs a pattern and its expanded occurrences,
// returning the pattern it replaced.
func (m *Meeting) SetRecurringSchedule(actor uuid.UUID, schedule RecurringSchedule, occurrences []Occurrence) (*RecurringSchedule, error) {
	if err := m.EnsureOwner(actor); err != nil {
		return nil, err
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}

	replaced := m.RecurringSchedule()
	m.recurring = &schedule
	m.Touch()
	m.AddDomainEvent(NewRecurringScheduleSet(m, schedule, occurrences))
	return replaced, nil
}

// RemoveRecurringSchedule clears the pattern and returns it.
func (m *Meeting) RemoveRecurringSchedule(actor uuid.UUID) (RecurringSchedule, error) {
	if err := m.EnsureOwner(actor); err != nil {
		return RecurringSchedule{}, err
	}
	if m.recurring == nil {
		return RecurringSchedule{}, ErrScheduleNotFound
	}

	removed := *m.recurring
	m.recurring = nil
	m.Touch()
	m.AddDomainEvent(NewRecurringScheduleRemoved(m, removed.ID))
	return removed, nil
}

// RehydrateMeeting recreates a meeting from persisted state.
func RehydrateMeeting(
	id uuid.UUID,
	ownerID uuid.UUID,
	title string,
	description string,
	location string,
	maxParticipants int,
	status RecruitmentStatus,
	participants []Participant,
	availability map[uuid.UUID][]SlotID,
	suggested *SuggestedSchedule,
	recurring *RecurringSchedule,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) *Meeting {
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	baseAggregate := sharedDomain.RehydrateBaseAggregateRoot(baseEntity, version)

	if availability == nil {
		availability = make(map[uuid.UUID][]SlotID)
	}
	for userID, slots := range availability {
		availability[userID] = normalizeSlots(slots)
	}

	return &Meeting{
		BaseAggregateRoot: baseAggregate,
		ownerID:           ownerID,
		title:             title,
		description:       description,
		location:          location,
		maxParticipants:   maxParticipants,
		status:            status,
		participants:      participants,
		availability:      availability,
		suggested:         suggested,
		recurring:         recurring,
	}
}
