package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/booking"
	"github.com/example/roombook/internal/series"
	"github.com/example/roombook/internal/timeutil"
)

type reservationService interface {
	GetReservation(ctx context.Context, id int64) (booking.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]booking.Reservation, error)
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.UpdateReservationResult, error)
	DeleteReservation(ctx context.Context, params application.DeleteReservationParams) (application.DeleteReservationResult, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", req.RoomID)

	result, err := h.service.CreateReservation(r.Context(), req.toParams())
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if result.Series != nil {
		logger.With("series_id", result.Series.SeriesID, "created", len(result.Series.Created)).InfoContext(r.Context(), "weekly series created")
		status := http.StatusCreated
		if result.Series.DryRun {
			status = http.StatusOK
		}
		h.responder.writeJSON(r.Context(), w, status, seriesPlanResponse{Series: toSeriesPlanDTO(*result.Series)})
		return
	}

	logger.With("reservation_id", result.Reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(*result.Reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := resourceID(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	reservation, err := h.service.GetReservation(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", id).ErrorContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := application.ListReservationsParams{
		DateFrom: r.URL.Query().Get("from"),
		DateTo:   r.URL.Query().Get("to"),
		SeriesID: r.URL.Query().Get("series_id"),
	}
	if raw := r.URL.Query().Get("room_id"); raw != "" {
		roomID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || roomID <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
			return
		}
		params.RoomID = &roomID
	}

	logger := h.log(r.Context(), "List")
	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reservations)).InfoContext(r.Context(), "reservations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := resourceID(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "reservation_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	scope := editScope(r)
	logger := h.log(r.Context(), "Update", "reservation_id", id, "scope", string(scope))

	result, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		ReservationID: id,
		Scope:         scope,
		Input:         req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("updated", len(result.Updated), "conflicts", len(result.Conflicts)).InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, updateReservationResponse{
		Updated:   toReservationDTOs(result.Updated),
		Conflicts: toConflictDTOs(result.Conflicts),
		Failures:  toFailureDTOs(result.Failures),
	})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := resourceID(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	// A missing or empty body is fine when no deletion password is
	// configured.
	var req deleteReservationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	scope := editScope(r)
	logger := h.log(r.Context(), "Delete", "reservation_id", id, "scope", string(scope))

	result, err := h.service.DeleteReservation(r.Context(), application.DeleteReservationParams{
		ReservationID: id,
		Scope:         scope,
		Password:      req.Password,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("deleted", len(result.DeletedIDs)).InfoContext(r.Context(), "reservation deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteReservationResponse{
		DeletedIDs: result.DeletedIDs,
		Failures:   toFailureDTOs(result.Failures),
	})
}

func editScope(r *http.Request) application.EditScope {
	switch r.URL.Query().Get("scope") {
	case "series":
		return application.ScopeSeries
	case "future":
		return application.ScopeFuture
	default:
		return application.ScopeSingle
	}
}

type reservationRequest struct {
	RoomID      int64              `json:"room_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Date        string             `json:"date"`
	Start       string             `json:"start"`
	End         string             `json:"end"`
	PeriodID    *int64             `json:"period_id"`
	Recurrence  *recurrenceRequest `json:"recurrence"`
}

type recurrenceRequest struct {
	WeeklyCount int  `json:"weekly_count"`
	DryRun      bool `json:"dry_run"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		RoomID:      r.RoomID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Start:       r.Start,
		End:         r.End,
		PeriodID:    r.PeriodID,
	}
}

func (r reservationRequest) toParams() application.CreateReservationParams {
	params := application.CreateReservationParams{Input: r.toInput()}
	if r.Recurrence != nil {
		params.Recurrence = &application.RecurrenceOptions{
			WeeklyCount: r.Recurrence.WeeklyCount,
			DryRun:      r.Recurrence.DryRun,
		}
	}
	return params
}

type deleteReservationRequest struct {
	Password string `json:"password"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type updateReservationResponse struct {
	Updated   []reservationDTO `json:"updated"`
	Conflicts []conflictDTO    `json:"conflicts,omitempty"`
	Failures  []failureDTO     `json:"failures,omitempty"`
}

type deleteReservationResponse struct {
	DeletedIDs []int64      `json:"deleted_ids"`
	Failures   []failureDTO `json:"failures,omitempty"`
}

type seriesPlanResponse struct {
	Series seriesPlanDTO `json:"series"`
}

type seriesPlanDTO struct {
	SeriesID    string           `json:"series_id"`
	SeriesTotal int              `json:"series_total"`
	DryRun      bool             `json:"dry_run"`
	Created     []reservationDTO `json:"created"`
	Conflicts   []conflictDTO    `json:"conflicts,omitempty"`
	Failures    []failureDTO     `json:"failures,omitempty"`
}

type conflictDTO struct {
	SeriesIndex int           `json:"series_index"`
	Date        string        `json:"date"`
	Blocking    []blockingDTO `json:"blocking,omitempty"`
}

type failureDTO struct {
	Index int    `json:"index"`
	Date  string `json:"date"`
	Error string `json:"error"`
}

type reservationDTO struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"room_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	SeriesID    string `json:"series_id,omitempty"`
	SeriesIndex int    `json:"series_index,omitempty"`
	SeriesTotal int    `json:"series_total,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func toReservationDTO(reservation booking.Reservation) reservationDTO {
	date := reservation.CalendarDate()
	dto := reservationDTO{
		ID:          reservation.ID,
		RoomID:      reservation.RoomID,
		Title:       reservation.Title,
		Description: reservation.Description,
		Date:        date,
		Start:       timeFieldDTO(date, reservation.Start),
		End:         timeFieldDTO(date, reservation.End),
		SeriesID:    reservation.SeriesID,
		SeriesIndex: reservation.SeriesIndex,
		SeriesTotal: reservation.SeriesTotal,
	}
	if !reservation.CreatedAt.IsZero() {
		dto.CreatedAt = reservation.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !reservation.UpdatedAt.IsZero() {
		dto.UpdatedAt = reservation.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

// timeFieldDTO renders a reservation time as the ISO datetime form of the
// wire contract, regardless of whether the row stored a bare "HH:MM" or a
// full datetime. Values that never normalized fall back to the stored text.
func timeFieldDTO(date string, value timeutil.LocalTimeValue) string {
	clock, ok := value.Clock()
	if !ok || date == "" {
		return value.Raw()
	}
	return timeutil.FormatISO(date, clock)
}

func toReservationDTOs(reservations []booking.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

func toSeriesPlanDTO(report application.SeriesPlanReport) seriesPlanDTO {
	return seriesPlanDTO{
		SeriesID:    report.SeriesID,
		SeriesTotal: report.SeriesTotal,
		DryRun:      report.DryRun,
		Created:     toReservationDTOs(report.Created),
		Conflicts:   toConflictDTOs(report.Conflicts),
		Failures:    toFailureDTOs(report.Failures),
	}
}

func toConflictDTOs(conflicts []series.ConflictReport) []conflictDTO {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(conflicts))
	for _, conflict := range conflicts {
		out = append(out, conflictDTO{
			SeriesIndex: conflict.SeriesIndex,
			Date:        conflict.Date,
			Blocking:    toBlockingDTOs(conflict.Blocking),
		})
	}
	return out
}

func toFailureDTOs(failures []series.WeekFailure) []failureDTO {
	if len(failures) == 0 {
		return nil
	}
	out := make([]failureDTO, 0, len(failures))
	for _, failure := range failures {
		dto := failureDTO{Index: failure.Index, Date: failure.Date}
		if failure.Err != nil {
			dto.Error = failure.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}
