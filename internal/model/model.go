package model

import "time"

// Request lifecycle states. Transitions are one-directional:
// pending -> confirmed or pending -> rejected. Terminal states are final.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

// Event origins recorded in EventMeta.
const (
	OriginOwner   = "owner"
	OriginBooking = "booking"
)

// WorkingHours is the owner's bookable window as wall-clock times of day
// ("HH:MM") in the calendar's timezone. Empty bounds mean no availability.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// User is a calendar owner account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Calendar struct {
	ID                     string
	OwnerID                string
	ShareToken             string
	Timezone               string
	WorkingHours           WorkingHours
	DefaultDurationMinutes int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type EventMeta struct {
	Origin         string `json:"origin"`
	RequesterName  string `json:"requester_name,omitempty"`
	RequesterEmail string `json:"requester_email,omitempty"`
}

// Event is a scheduled block on a calendar. StartUTC/EndUTC are absolute
// instants; events of one calendar are pairwise non-overlapping.
type Event struct {
	ID          string
	CalendarID  string
	Title       string
	Description string
	StartUTC    time.Time
	EndUTC      time.Time
	Meta        EventMeta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BookingRequest struct {
	ID                string
	CalendarID        string
	RequesterName     string
	RequesterEmail    string
	Title             string
	Description       string
	RequestedStartUTC time.Time
	RequestedEndUTC   time.Time
	Status            string
	CreatedAt         time.Time
}

// Slot is a candidate bookable window. Slots are derived on every
// availability query and never persisted.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
