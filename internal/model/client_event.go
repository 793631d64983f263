package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClientEventType enumerates browser-side signals reported during an exam.
type ClientEventType string

const (
	ClientEventTabSwitch      ClientEventType = "tab_switch"
	ClientEventOnline         ClientEventType = "online"
	ClientEventOffline        ClientEventType = "offline"
	ClientEventFullscreenExit ClientEventType = "fullscreen_exit"
)

// Valid reports whether t is a known event type.
func (t ClientEventType) Valid() bool {
	switch t {
	case ClientEventTabSwitch, ClientEventOnline, ClientEventOffline, ClientEventFullscreenExit:
		return true
	}
	return false
}

// ClientEvent is an observability record. It never influences session state.
type ClientEvent struct {
	ExamSessionID uuid.UUID       `json:"exam_session_id"`
	Type          ClientEventType `json:"type"`
	Detail        json.RawMessage `json:"detail,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// RecordClientEventRequest is the payload for reporting a client event.
type RecordClientEventRequest struct {
	Type   ClientEventType `json:"type" binding:"required,oneof=tab_switch online offline fullscreen_exit"`
	Detail json.RawMessage `json:"detail" binding:"omitempty"`
}
