// internal/app/features/errors/errors.go
//
// Package errors turns service errors into JSON responses.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"go.uber.org/zap"
)

// Response is the body of every error response.
type Response struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Status maps an error to its HTTP status by class.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case inputval.IsValidation(err):
		return http.StatusBadRequest
	case stderrors.Is(err, schedule.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, schedule.ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, schedule.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, schedule.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorLogger writes error responses and logs the ones that are our fault.
type ErrorLogger struct {
	Log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// Write sends err with the status Status picks. Server errors are logged with
// the request and the message is replaced by a generic one.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	resp := Response{Error: err.Error()}

	var ve *inputval.ValidationError
	if stderrors.As(err, &ve) {
		resp.Field = ve.Field
	}

	if status >= http.StatusInternalServerError {
		e.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", actor(r)),
			zap.Error(err))
		resp.Error = "internal error"
	} else {
		e.Log.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	WriteJSON(w, status, resp)
}

// LogBadRequest answers 400 for input that never reached the service, such as
// an unreadable body.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Debug(msg, zap.String("path", r.URL.Path), zap.Error(err))
	WriteJSON(w, http.StatusBadRequest, Response{Error: msg})
}

func actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.UserID
	}
	return ""
}
