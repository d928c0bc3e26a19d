package models

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RolePlayer    UserRole = "player"
)

// Actor is the caller of a mutating operation. ParticipantIDs lists the roster
// entries the caller may act for (their own entry, or the teams they captain).
type Actor struct {
	UserID         int      `json:"user_id"`
	Role           UserRole `json:"role"`
	ParticipantIDs []int    `json:"participant_ids,omitempty"`
}

// IsStaff reports the elevated capability required to run matches.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleOrganizer
}

// ActsFor returns the first participant id of the actor that occupies a slot of m.
func (a Actor) ActsFor(m *Match) (int, bool) {
	for _, id := range a.ParticipantIDs {
		if m.HasParticipant(id) {
			return id, true
		}
	}
	return 0, false
}
