package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/booking"
)

type periodService interface {
	CreatePeriod(ctx context.Context, input application.PeriodInput) (booking.SchedulePeriod, error)
	UpdatePeriod(ctx context.Context, id int64, input application.PeriodInput) (booking.SchedulePeriod, error)
	GetPeriod(ctx context.Context, id int64) (booking.SchedulePeriod, error)
	ListPeriods(ctx context.Context) ([]booking.SchedulePeriod, error)
	DeletePeriod(ctx context.Context, id int64) error
}

type PeriodHandler struct {
	service   periodService
	responder responder
	logger    *slog.Logger
}

func NewPeriodHandler(service periodService, logger *slog.Logger) *PeriodHandler {
	base := defaultLogger(logger)
	return &PeriodHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PeriodHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PeriodHandler", operation, attrs...)
}

func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode period request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	period, err := h.service.CreatePeriod(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "period creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("period_id", period.ID).InfoContext(r.Context(), "period created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, periodResponse{Period: toPeriodDTO(period)})
}

func (h *PeriodHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := resourceID(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "period_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode period update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "period_id", id)

	period, err := h.service.UpdatePeriod(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "period update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "period updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, periodResponse{Period: toPeriodDTO(period)})
}

func (h *PeriodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := resourceID(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "period_id", id)
	if err := h.service.DeletePeriod(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "period delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "period deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	periods, err := h.service.ListPeriods(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "period list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(periods)).InfoContext(r.Context(), "periods listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPeriodsResponse{Periods: toPeriodDTOs(periods)})
}

type periodRequest struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r periodRequest) toInput() application.PeriodInput {
	return application.PeriodInput{Name: r.Name, Start: r.Start, End: r.End}
}

type periodResponse struct {
	Period periodDTO `json:"period"`
}

type listPeriodsResponse struct {
	Periods []periodDTO `json:"periods"`
}

type periodDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toPeriodDTO(period booking.SchedulePeriod) periodDTO {
	return periodDTO{
		ID:    period.ID,
		Name:  period.Name,
		Start: period.Start.String(),
		End:   period.End.String(),
	}
}

func toPeriodDTOs(periods []booking.SchedulePeriod) []periodDTO {
	if len(periods) == 0 {
		return nil
	}
	out := make([]periodDTO, 0, len(periods))
	for _, period := range periods {
		out = append(out, toPeriodDTO(period))
	}
	return out
}
