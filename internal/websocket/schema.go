package websocket

import (
	"encoding/json"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSaveAnswer Action = "save_answer"
	ActionSubmit     Action = "submit"
	ActionEvent      Action = "event"
	ActionPing       Action = "ping"
)

// Request is any client frame. Fields beyond Action and Ref depend on the action.
// Ref is opaque to the server and echoed on the reply.
type Request struct {
	Action Action `json:"action"`
	Ref    string `json:"ref,omitempty"`

	// save_answer
	QuestionID     string `json:"question_id,omitempty"`
	SelectedOption string `json:"selected_option,omitempty"`

	// submit
	Trigger model.SubmitTrigger `json:"trigger,omitempty"`

	// event
	Type   model.ClientEventType `json:"type,omitempty"`
	Detail json.RawMessage       `json:"detail,omitempty"`
}

// SaveAnswerRequest extracts the save_answer fields for validation.
func (r *Request) SaveAnswerRequest() model.SaveAnswerRequest {
	return model.SaveAnswerRequest{QuestionID: r.QuestionID, SelectedOption: r.SelectedOption}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventConnected Event = "connected"
	EventSaved     Event = "saved"
	EventSubmitted Event = "submitted"
	EventRecorded  Event = "event_recorded"
	EventPong      Event = "pong"
	EventError     Event = "error"
)

// Response is every server frame.
type Response struct {
	Event Event      `json:"event"`
	Ref   string     `json:"ref,omitempty"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
