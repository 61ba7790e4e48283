package api

// User is a trip member as shown to clients.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Trip is a group of members sharing expenses.
type Trip struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Destination  string  `json:"destination,omitempty"`
	Description  string  `json:"description,omitempty"`
	CreatedBy    string  `json:"created_by"`
	Participants []*User `json:"participants"`
	IsComplete   bool    `json:"is_complete"`
	IsArchived   bool    `json:"is_archived"`
	CreatedAt    int64   `json:"created_at"`
	Version      int64   `json:"version"`
}

type CreateTripRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Destination string `json:"destination" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type CreateTripResponse struct {
	Trip *Trip `json:"trip"`
}

type ListTripsRequest struct {
	IncludeArchived bool `json:"include_archived"`
}

type ListTripsResponse struct {
	Trips []*Trip `json:"trips"`
}

type GetTripRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type GetTripResponse struct {
	Trip *Trip `json:"trip"`
}

// AddParticipantRequest adds a user to the roster. DisplayName is used only
// if the user has never signed in.
type AddParticipantRequest struct {
	TripID      string `json:"trip_id" validate:"required"`
	UserID      string `json:"user_id" validate:"required,max=128"`
	DisplayName string `json:"display_name" validate:"max=200"`
}

type AddParticipantResponse struct {
	Trip *Trip `json:"trip"`
}

type RemoveParticipantRequest struct {
	TripID string `json:"trip_id" validate:"required"`
	UserID string `json:"user_id" validate:"required"`
}

type RemoveParticipantResponse struct {
	Trip *Trip `json:"trip"`
}

type CompleteTripRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type ArchiveTripRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}
