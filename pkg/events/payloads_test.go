package events

import (
	"encoding/json"
	"testing"
)

func TestHuntObservationPayloadJSON(t *testing.T) {
	payload := HuntObservationPayload{
		SessionID: "s1",
		HuntID:    "h1",
		StepIndex: 2,
		Stdout:    "total 0\n",
		Truncated: true,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded HuntObservationPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != payload {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", decoded, payload)
	}
}

func TestAIFindingGeneratedPayloadOmitsEmptyFields(t *testing.T) {
	payload := AIFindingGeneratedPayload{SessionID: "s1", FindingID: "f1"}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["hunt_id"]; ok {
		t.Fatalf("hunt_id should be omitted when empty")
	}
}
