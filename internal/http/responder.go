package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/series"
)

var (
	errBadRequestBody = errors.New("the request body is not valid")
	errInvalidID      = errors.New("the identifier in the path is not valid")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource does not exist"})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "INVALID_PASSWORD",
			Message:   "the deletion password is not correct",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{Message: "this operation is not permitted"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the input is not valid",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "SLOT_CONFLICT",
				Message:   "the requested slot is already booked",
				Blocking:  toBlockingDTOs(cErr.Blocking),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Blocking  []blockingDTO     `json:"blocking,omitempty"`
}

type blockingDTO struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func toBlockingDTOs(refs []series.BlockingRef) []blockingDTO {
	if len(refs) == 0 {
		return nil
	}
	out := make([]blockingDTO, 0, len(refs))
	for _, ref := range refs {
		out = append(out, blockingDTO{ID: ref.ID, Title: ref.Title, Start: ref.Start, End: ref.End})
	}
	return out
}
