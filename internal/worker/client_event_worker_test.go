package worker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-cbt/internal/model"
)

func TestDecodeEvent(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data, err := json.Marshal(model.ClientEvent{
		ExamSessionID: id,
		Type:          model.ClientEventTabSwitch,
		Detail:        json.RawMessage(`{"count":3}`),
		RecordedAt:    at,
	})
	if err != nil {
		t.Fatal(err)
	}

	ev, err := decodeEvent(data)
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if ev.ExamSessionID != id || ev.Type != model.ClientEventTabSwitch || !ev.RecordedAt.Equal(at) {
		t.Errorf("decoded %+v", ev)
	}

	row := eventRow(ev)
	if len(row) != len(eventColumns) {
		t.Fatalf("row has %d values, want %d", len(row), len(eventColumns))
	}
	if row[2] != `{"count":3}` {
		t.Errorf("detail = %v", row[2])
	}
}

func TestDecodeEventRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"exam_session_id":`,
		"unknown type": `{"exam_session_id":"` + uuid.NewString() + `","type":"screenshot"}`,
		"bad uuid":     `{"exam_session_id":"nope","type":"online"}`,
	}
	for name, payload := range cases {
		if _, err := decodeEvent([]byte(payload)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestEventRowWithoutDetail(t *testing.T) {
	row := eventRow(&model.ClientEvent{ExamSessionID: uuid.New(), Type: model.ClientEventOffline})
	if row[2] != nil {
		t.Errorf("detail = %v, want nil", row[2])
	}
}
