package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation    ErrCode = "VALIDATION_ERROR"
	ErrInvalidID     ErrCode = "INVALID_ID"
	ErrInvalidOption ErrCode = "INVALID_OPTION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"
	ErrSubjectNotFound  ErrCode = "SUBJECT_NOT_FOUND"
	ErrStudentNotFound  ErrCode = "STUDENT_NOT_FOUND"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	ErrRouteNotFound    ErrCode = "NOT_FOUND"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrSessionNotActive        ErrCode = "SESSION_NOT_ACTIVE"
	ErrSessionNotStarted       ErrCode = "SESSION_NOT_STARTED"
	ErrSessionAlreadyCompleted ErrCode = "SESSION_ALREADY_COMPLETED"
	ErrQuestionNotInSession    ErrCode = "QUESTION_NOT_IN_SESSION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidOption:
		return "The selected option is not available for this question."

	case ErrSessionNotFound:
		return "Exam session not found."
	case ErrSubjectNotFound:
		return "Subject not found."
	case ErrStudentNotFound:
		return "Student not found."
	case ErrQuestionNotFound:
		return "Question not found."
	case ErrRouteNotFound:
		return "Resource not found."

	case ErrSessionNotActive:
		return "This exam is not in progress. Answers can no longer be saved."
	case ErrSessionNotStarted:
		return "This exam has not been started yet."
	case ErrSessionAlreadyCompleted:
		return "This exam has already been completed."
	case ErrQuestionNotInSession:
		return "The question does not belong to this exam."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
