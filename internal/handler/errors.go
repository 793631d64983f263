package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
)

var errorCodes = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{service.ErrSubjectNotFound, http.StatusNotFound, response.ErrSubjectNotFound},
	{service.ErrStudentNotFound, http.StatusNotFound, response.ErrStudentNotFound},
	{service.ErrQuestionNotFound, http.StatusNotFound, response.ErrQuestionNotFound},
	{service.ErrSessionNotActive, http.StatusConflict, response.ErrSessionNotActive},
	{service.ErrSessionNotStarted, http.StatusConflict, response.ErrSessionNotStarted},
	{service.ErrSessionAlreadyCompleted, http.StatusConflict, response.ErrSessionAlreadyCompleted},
	{service.ErrQuestionNotInSession, http.StatusConflict, response.ErrQuestionNotInSession},
	{service.ErrInvalidOption, http.StatusBadRequest, response.ErrInvalidOption},
	{service.ErrValidation, http.StatusBadRequest, response.ErrValidation},
}

// classify maps a service error to an HTTP status and error code.
// Unknown errors are internal.
func classify(err error) (int, response.ErrCode) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.status, ec.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// fail writes the error response for err, logging it when it is internal.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", c.GetString(response.ContextKeyRequestID)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	if code == response.ErrValidation {
		response.FailWithFields(c, status, code, map[string]string{"detail": err.Error()})
		return
	}
	response.Fail(c, status, code)
}

// sessionID parses the :session_id path parameter, replying 400 when malformed.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
