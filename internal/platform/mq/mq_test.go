package mq

import (
	"testing"
	"time"

	"github.com/pm/patient-platform/internal/events"
)

func TestPublishing_CarriesKeyAndKind(t *testing.T) {
	ev := events.PatientEvent{
		PatientID: "pid-1",
		Name:      "Jane Roe",
		Email:     "jane@example.com",
		EventType: events.KindCreated,
		EmittedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	pub, err := publishing(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pub.MessageId != "pid-1" {
		t.Errorf("expected message id pid-1, got %s", pub.MessageId)
	}
	if pub.Type != string(events.KindCreated) {
		t.Errorf("expected type %s, got %s", events.KindCreated, pub.Type)
	}
	if pub.ContentType != "application/json" {
		t.Errorf("expected application/json, got %s", pub.ContentType)
	}

	decoded, err := events.Unmarshal(pub.Body)
	if err != nil {
		t.Fatalf("body does not decode: %v", err)
	}
	if decoded != ev {
		t.Errorf("body mismatch: got %+v, want %+v", decoded, ev)
	}
}

func TestConsumerConfig_Defaults(t *testing.T) {
	cfg := ConsumerConfig{URL: "amqp://localhost", Exchange: "patient.events", Queue: "q"}
	cfg.applyDefaults()

	if cfg.Prefetch != 8 {
		t.Errorf("expected default prefetch 8, got %d", cfg.Prefetch)
	}
	if len(cfg.Bindings) != 1 || cfg.Bindings[0] != "#" {
		t.Errorf("expected default binding #, got %v", cfg.Bindings)
	}
}
