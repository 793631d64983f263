package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/validator"
)

// ExamSessionHandler exposes the session lifecycle over HTTP.
type ExamSessionHandler struct {
	sessions *service.ExamSessionService
	answers  *service.AnswerService
	papers   *service.PaperService
	events   *service.ClientEventService
	log      zerolog.Logger
}

func NewExamSessionHandler(
	sessions *service.ExamSessionService,
	answers *service.AnswerService,
	papers *service.PaperService,
	events *service.ClientEventService,
	log zerolog.Logger,
) *ExamSessionHandler {
	return &ExamSessionHandler{
		sessions: sessions,
		answers:  answers,
		papers:   papers,
		events:   events,
		log:      log.With().Str("component", "exam_session_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/exam-sessions
func (h *ExamSessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"session_id": session.ID,
		"student_id": session.StudentID,
		"subject_id": session.SubjectID,
		"status":     session.Status,
	})
}

// Get godoc
// GET /api/v1/exam-sessions/:session_id
func (h *ExamSessionHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Start godoc
// POST /api/v1/exam-sessions/:session_id/start
// Idempotent: repeating it returns the original start time.
func (h *ExamSessionHandler) Start(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	res, err := h.sessions.Start(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Questions godoc
// GET /api/v1/exam-sessions/:session_id/questions
func (h *ExamSessionHandler) Questions(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	questions, err := h.papers.SessionQuestions(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if questions == nil {
		questions = []model.QuestionForStudent{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// SavedAnswers godoc
// GET /api/v1/exam-sessions/:session_id/answers
func (h *ExamSessionHandler) SavedAnswers(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	answers, err := h.answers.SavedAnswers(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// SaveAnswer godoc
// PUT /api/v1/exam-sessions/:session_id/answers
// An empty selected_option is acknowledged with saved=false.
func (h *ExamSessionHandler) SaveAnswer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.answers.Save(c.Request.Context(), id, questionID, req.SelectedOption)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Submit godoc
// POST /api/v1/exam-sessions/:session_id/submit
// The body is optional; {"trigger":"time_up"} records an automatic submission.
func (h *ExamSessionHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	res, err := h.sessions.Submit(c.Request.Context(), id, req.Trigger)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Results godoc
// GET /api/v1/exam-sessions/:session_id/results
func (h *ExamSessionHandler) Results(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	res, err := h.sessions.Results(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// RecordEvent godoc
// POST /api/v1/exam-sessions/:session_id/events
func (h *ExamSessionHandler) RecordEvent(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.RecordClientEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ev, err := h.events.Record(c.Request.Context(), id, req.Type, req.Detail)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"event": ev})
}

// EventCounts godoc
// GET /api/v1/exam-sessions/:session_id/events
func (h *ExamSessionHandler) EventCounts(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	counts, err := h.events.Counts(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"counts": counts})
}
