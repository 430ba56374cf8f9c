package event

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestNewValidatesType(t *testing.T) {
	if _, err := New("org-1", "payroll.exploded", "emp-1", nil, fixedNow, nil); err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if _, err := New(" ", TypeEmployeeCreated, "emp-1", nil, fixedNow, nil); err == nil {
		t.Fatal("expected error for missing org")
	}
}

func TestNewDefaultsPayload(t *testing.T) {
	envelope, err := New("org-1", TypeLeaveApproved, "req-1", nil, fixedNow, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if envelope.Payload == nil {
		t.Fatal("payload should default to an empty map")
	}
	if !envelope.OccurredAt.Equal(fixedNow()) {
		t.Fatalf("occurred at = %v", envelope.OccurredAt)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	envelope, err := New("org-1", TypeEmployeeStatusChanged, "emp-1", map[string]any{
		"status":          "ACTIVE",
		"previous_status": "ONBOARDING",
	}, fixedNow, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	raw, err := envelope.MarshalPayload()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := UnmarshalPayload(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != "ACTIVE" || decoded["previous_status"] != "ONBOARDING" {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestUnmarshalPayloadEmpty(t *testing.T) {
	payload, err := UnmarshalPayload("  ")
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload) != 0 {
		t.Fatalf("payload = %v, want empty", payload)
	}
}

func TestKnownTypeVocabulary(t *testing.T) {
	for _, eventType := range Types() {
		if !KnownType(eventType) {
			t.Fatalf("%s should be known", eventType)
		}
	}
	if KnownType("unknown.event") {
		t.Fatal("unknown type should not be known")
	}
}
