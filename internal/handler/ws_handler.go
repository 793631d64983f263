package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/validator"
	ws "github.com/stemsi/exstem-cbt/internal/websocket"
)

const wsActionTimeout = 10 * time.Second

// WSHandler carries answer saves, submissions and client events over one
// WebSocket per exam session. Every frame goes through the same services as HTTP.
type WSHandler struct {
	sessions *service.ExamSessionService
	answers  *service.AnswerService
	events   *service.ClientEventService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(
	sessions *service.ExamSessionService,
	answers *service.AnswerService,
	events *service.ClientEventService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		answers:  answers,
		events:   events,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/exam-sessions/:session_id/stream
func (h *WSHandler) Stream(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	// Reject unknown sessions before upgrading so the client gets a normal HTTP error.
	view, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Client connected")

	if err := ws.WriteEvent(conn, ws.EventConnected, "", view); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if ws.IsClosed(err) {
				wsLog.Debug().Msg("Connection closed")
			} else {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		if err := h.dispatch(ctx, conn, id, &msg); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, closing")
			return
		}
	}
}

// dispatch handles one frame. The returned error is a write failure only;
// request errors are reported to the client as error frames.
func (h *WSHandler) dispatch(parent context.Context, conn *websocket.Conn, id uuid.UUID, msg *ws.Request) error {
	ctx, cancel := context.WithTimeout(parent, wsActionTimeout)
	defer cancel()

	switch msg.Action {
	case ws.ActionPing:
		return ws.WriteEvent(conn, ws.EventPong, msg.Ref, nil)

	case ws.ActionSaveAnswer:
		req := msg.SaveAnswerRequest()
		if fields := validator.Struct(&req); fields != nil {
			return h.writeError(conn, msg.Ref, response.ErrValidation, fields)
		}
		questionID, err := uuid.Parse(req.QuestionID)
		if err != nil {
			return h.writeError(conn, msg.Ref, response.ErrInvalidID, nil)
		}
		res, err := h.answers.Save(ctx, id, questionID, req.SelectedOption)
		if err != nil {
			return h.writeServiceError(conn, msg.Ref, err)
		}
		return ws.WriteEvent(conn, ws.EventSaved, msg.Ref, res)

	case ws.ActionSubmit:
		res, err := h.sessions.Submit(ctx, id, msg.Trigger)
		if err != nil {
			return h.writeServiceError(conn, msg.Ref, err)
		}
		return ws.WriteEvent(conn, ws.EventSubmitted, msg.Ref, res)

	case ws.ActionEvent:
		ev, err := h.events.Record(ctx, id, msg.Type, msg.Detail)
		if err != nil {
			return h.writeServiceError(conn, msg.Ref, err)
		}
		return ws.WriteEvent(conn, ws.EventRecorded, msg.Ref, ev)
	}

	h.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
	return h.writeError(conn, msg.Ref, response.ErrValidation, map[string]string{"action": "unknown action: " + string(msg.Action)})
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, ref string, err error) error {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("WebSocket action failed")
	}
	var fields map[string]string
	if code == response.ErrValidation {
		fields = map[string]string{"detail": err.Error()}
	}
	return h.writeError(conn, ref, code, fields)
}

func (h *WSHandler) writeError(conn *websocket.Conn, ref string, code response.ErrCode, fields map[string]string) error {
	return ws.WriteError(conn, ref, string(code), response.GetMessage(code), fields)
}
