// Package events defines the patient lifecycle event schema shared by the
// orchestrator (producer) and the analytics aggregator (consumer).
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind is the closed set of lifecycle event kinds. Anything else decodes
// to KindUnknown and must be handled explicitly by consumers.
type EventKind string

const (
	KindCreated EventKind = "PATIENT_CREATED"
	KindUpdated EventKind = "PATIENT_UPDATED"
	KindDeleted EventKind = "PATIENT_DELETED"
	KindUnknown EventKind = ""
)

// Routing keys on the patient topic exchange, one per event kind. Consumers
// bind with RKPatientAll.
const (
	RKPatientCreated = "patient.created"
	RKPatientUpdated = "patient.updated"
	RKPatientDeleted = "patient.deleted"
	RKPatientAll     = "patient.*"
)

// ParseKind maps a wire string onto the closed kind set.
func ParseKind(s string) EventKind {
	switch EventKind(s) {
	case KindCreated, KindUpdated, KindDeleted:
		return EventKind(s)
	default:
		return KindUnknown
	}
}

// RoutingKey returns the routing key used when publishing events of this kind.
func (k EventKind) RoutingKey() string {
	switch k {
	case KindCreated:
		return RKPatientCreated
	case KindUpdated:
		return RKPatientUpdated
	case KindDeleted:
		return RKPatientDeleted
	default:
		return "patient.unknown"
	}
}

// Label returns a short lowercase name for metrics and logs.
func (k EventKind) Label() string {
	switch k {
	case KindCreated:
		return "created"
	case KindUpdated:
		return "updated"
	case KindDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// DateLayout is the wire format for date fields such as DateOfBirth.
const DateLayout = "2006-01-02"

// PatientEvent is the immutable fact appended to the patient topic on every
// lifecycle operation. DateOfBirth is the wire date string (YYYY-MM-DD) and
// may be empty.
type PatientEvent struct {
	PatientID   string    `json:"patient_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	EventType   EventKind `json:"event_type"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// Marshal encodes the event for publishing.
func Marshal(ev PatientEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Unmarshal decodes an event payload, rejecting payloads without a patient id.
func Unmarshal(body []byte) (PatientEvent, error) {
	var ev PatientEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return PatientEvent{}, fmt.Errorf("decode patient event: %w", err)
	}
	if ev.PatientID == "" {
		return PatientEvent{}, fmt.Errorf("decode patient event: missing patient_id")
	}
	return ev, nil
}
