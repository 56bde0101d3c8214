package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp              EventType = "user_signed_up"
	EventUserLoggedIn              EventType = "user_logged_in"
	EventTokenReissued             EventType = "token_reissued"
	EventSessionConflict           EventType = "session_conflict"
	EventUserLoggedOut             EventType = "user_logged_out"
	EventPasswordReset             EventType = "password_reset"
	EventVerificationCodeRequested EventType = "verification_code_requested"
	EventVerificationCodeChecked   EventType = "verification_code_checked"
)

// AllEventTypes lists every type the auth services publish.
var AllEventTypes = []EventType{
	EventUserSignedUp,
	EventUserLoggedIn,
	EventTokenReissued,
	EventSessionConflict,
	EventUserLoggedOut,
	EventPasswordReset,
	EventVerificationCodeRequested,
	EventVerificationCodeChecked,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: eventType, Timestamp: at}
}

// SessionConflictPayload describes a refused reissue.
type SessionConflictPayload struct {
	Reason string `json:"reason"`
}

// VerificationCheckedPayload records the outcome of a code check.
type VerificationCheckedPayload struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// DeliveryPayload records whether the code mail was handed off.
type DeliveryPayload struct {
	Delivered bool `json:"delivered"`
}
