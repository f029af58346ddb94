package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/trustdot/reputation/pkg/errors"
	"github.com/trustdot/reputation/pkg/logger"
	"github.com/trustdot/reputation/pkg/validator"
)

// Response is the JSON envelope of every API response.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status. Encoding errors are dropped:
// the header is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes {"data": v}.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError maps err onto the envelope. AppErrors keep their own code and
// status; bare sentinels are mapped by errors.Is. 5xx responses are logged
// with the request-scoped logger, or fallback when none is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "request validation failed",
			Fields: valErr.Fields(), RequestID: requestID,
		}})
		return
	}

	resp := &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred", RequestID: requestID}
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		resp.Code, resp.Message = appErr.Code, appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Code, resp.Message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		resp.Code, resp.Message = "CONFLICT", "resource already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		resp.Code, resp.Message = "INVALID_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrTransient):
		resp.Code, resp.Message = "TRANSIENT", "temporarily unavailable, try again later"
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: resp})
}

// ParseUUID parses a path or query value. On failure it writes a 400 naming
// the parameter and returns false so the handler can return early.
func ParseUUID(w http.ResponseWriter, name, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid " + name + ": " + value,
		}})
		return uuid.Nil, false
	}
	return id, true
}
