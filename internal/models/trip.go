package models

// Trip groups expenses among a set of participants.
// The creator owns the trip and is the only one allowed to manage its roster
// or complete it.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Title is the display name of the trip (e.g., "Bali 2026").
	Title string

	// Destination is free text describing where the trip goes.
	Destination string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the trip creator.
	CreatedBy string

	// Participants is the ordered roster of user IDs. The creator is always first.
	Participants []string

	// IsComplete marks the trip as finished; no expenses can be added afterwards.
	IsComplete bool

	// IsArchived hides the trip from the default listing.
	IsArchived bool

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64

	// Version increases on every change to the trip's expenses, payments or roster.
	// Derived views computed for one version stay valid until it changes.
	Version int64
}

// HasParticipant reports whether userID is on the trip roster.
func (t *Trip) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
