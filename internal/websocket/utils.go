package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// NewUpgrader creates an upgrader that accepts the given origins.
// An empty list permits all origins.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WriteTyped sends a payload with a write deadline.
func WriteTyped(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteEvent sends a successful reply.
func WriteEvent(conn *websocket.Conn, event Event, ref string, data any) error {
	return WriteTyped(conn, Response{Event: event, Ref: ref, Data: data})
}

// WriteError sends an error reply.
func WriteError(conn *websocket.Conn, ref, code, message string, fields map[string]string) error {
	return WriteTyped(conn, Response{
		Event: EventError,
		Ref:   ref,
		Error: &ErrorBody{Code: code, Message: message, Fields: fields},
	})
}

// ReadJSON reads one frame into v, extending the read deadline first.
func ReadJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}

// IsClosed reports whether err is an ordinary end of the connection.
func IsClosed(err error) bool {
	return !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure)
}
