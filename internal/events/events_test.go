package events

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want EventKind
	}{
		{"PATIENT_CREATED", KindCreated},
		{"PATIENT_UPDATED", KindUpdated},
		{"PATIENT_DELETED", KindDeleted},
		{"PATIENT_ARCHIVED", KindUnknown},
		{"", KindUnknown},
	}
	for _, tc := range tests {
		if got := ParseKind(tc.in); got != tc.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoutingKey(t *testing.T) {
	if got := KindCreated.RoutingKey(); got != RKPatientCreated {
		t.Errorf("expected %s, got %s", RKPatientCreated, got)
	}
	if got := KindDeleted.RoutingKey(); got != RKPatientDeleted {
		t.Errorf("expected %s, got %s", RKPatientDeleted, got)
	}
	if got := KindUnknown.RoutingKey(); got != "patient.unknown" {
		t.Errorf("expected patient.unknown, got %s", got)
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	ev := PatientEvent{
		PatientID:   "5f1b3c1e-0000-0000-0000-000000000001",
		Name:        "Jane Roe",
		Email:       "jane@example.com",
		DateOfBirth: "1990-04-12",
		EventType:   KindCreated,
		EmittedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Unmarshal(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != ev {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, ev)
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	if _, err := Unmarshal([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := Unmarshal([]byte(`{"name":"no id"}`)); err == nil {
		t.Error("expected error for payload without patient_id")
	}
}

func TestDateLayout_ParsesWireDates(t *testing.T) {
	dob, err := time.Parse(DateLayout, "1990-04-12")
	if err != nil {
		t.Fatalf("wire date does not parse with DateLayout: %v", err)
	}
	if dob.Format(DateLayout) != "1990-04-12" {
		t.Errorf("round trip mismatch: got %s", dob.Format(DateLayout))
	}
}
