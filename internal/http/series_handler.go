package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/series"
)

var errInvalidSeriesID = errors.New("the series identifier in the path is not valid")

type seriesService interface {
	InspectSeries(ctx context.Context, seriesID string, opts application.SeriesRepairOptions) (series.Analysis, error)
	RepairSeries(ctx context.Context, seriesID string, opts application.SeriesRepairOptions) (application.SeriesReport, error)
	ExtendSeries(ctx context.Context, seriesID string, newTotal int, opts application.SeriesRepairOptions) (application.SeriesReport, error)
}

type SeriesHandler struct {
	service   seriesService
	responder responder
	logger    *slog.Logger
}

func NewSeriesHandler(service seriesService, logger *slog.Logger) *SeriesHandler {
	base := defaultLogger(logger)
	return &SeriesHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SeriesHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SeriesHandler", operation, attrs...)
}

func (h *SeriesHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seriesID, ok := seriesIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeriesID)
		return
	}

	opts := application.SeriesRepairOptions{FutureOnly: r.URL.Query().Get("future") == "true"}
	if raw := r.URL.Query().Get("assumed_total"); raw != "" {
		total, err := strconv.Atoi(raw)
		if err != nil || total < 1 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("assumed_total must be a positive number"))
			return
		}
		opts.AssumedTotal = total
	}

	logger := h.log(r.Context(), "Inspect", "series_id", seriesID)

	analysis, err := h.service.InspectSeries(r.Context(), seriesID, opts)
	if err != nil {
		logger.ErrorContext(r.Context(), "series inspection failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "series inspected")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesAnalysisResponse{Analysis: toAnalysisDTO(analysis)})
}

func (h *SeriesHandler) Repair(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seriesID, ok := seriesIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeriesID)
		return
	}

	var req seriesRepairRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	logger := h.log(r.Context(), "Repair", "series_id", seriesID, "dry_run", req.DryRun)

	report, err := h.service.RepairSeries(r.Context(), seriesID, application.SeriesRepairOptions{
		DryRun:       req.DryRun,
		FutureOnly:   req.FutureOnly,
		AssumedTotal: req.AssumedTotal,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "series repair failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("inserted", report.Result.InsertedCount).InfoContext(r.Context(), "series repaired")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSeriesReportResponse(report))
}

func (h *SeriesHandler) Extend(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seriesID, ok := seriesIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeriesID)
		return
	}

	var req seriesExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Extend", "series_id", seriesID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode extend request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Extend", "series_id", seriesID, "total", req.Total, "dry_run", req.DryRun)

	report, err := h.service.ExtendSeries(r.Context(), seriesID, req.Total, application.SeriesRepairOptions{DryRun: req.DryRun})
	if err != nil {
		logger.ErrorContext(r.Context(), "series extension failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("inserted", report.Result.InsertedCount).InfoContext(r.Context(), "series extended")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSeriesReportResponse(report))
}

func seriesIDFromContext(ctx context.Context) (string, bool) {
	raw, ok := ResourceIDFromContext(ctx)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

type seriesRepairRequest struct {
	DryRun       bool `json:"dry_run"`
	FutureOnly   bool `json:"future_only"`
	AssumedTotal int  `json:"assumed_total"`
}

type seriesExtendRequest struct {
	Total  int  `json:"total"`
	DryRun bool `json:"dry_run"`
}

type seriesAnalysisResponse struct {
	Analysis analysisDTO `json:"analysis"`
}

type seriesReportResponse struct {
	Analysis analysisDTO      `json:"analysis"`
	DryRun   bool             `json:"dry_run"`
	Inserted int              `json:"inserted"`
	Created  []reservationDTO `json:"created,omitempty"`
	Failures []failureDTO     `json:"failures,omitempty"`
}

type analysisDTO struct {
	SeriesID    string    `json:"series_id"`
	SeriesTotal int       `json:"series_total"`
	Anchor      anchorDTO `json:"anchor"`
	Weeks       []weekDTO `json:"weeks"`
}

type anchorDTO struct {
	RoomID    int64  `json:"room_id"`
	Date      string `json:"date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	BaseTitle string `json:"base_title"`
}

type weekDTO struct {
	Index    int          `json:"index"`
	Date     string       `json:"date"`
	State    string       `json:"state"`
	Conflict *blockingDTO `json:"conflict,omitempty"`
	Existing *int64       `json:"existing_id,omitempty"`
}

func toAnalysisDTO(analysis series.Analysis) analysisDTO {
	weeks := make([]weekDTO, 0, len(analysis.Weeks))
	for _, week := range analysis.Weeks {
		dto := weekDTO{Index: week.Index, Date: week.Date, State: string(week.State)}
		if week.Conflict != nil {
			ref := blockingDTO{ID: week.Conflict.ID, Title: week.Conflict.Title}
			if hhmm, ok := week.Conflict.Start.HHMM(); ok {
				ref.Start = hhmm
			}
			if hhmm, ok := week.Conflict.End.HHMM(); ok {
				ref.End = hhmm
			}
			dto.Conflict = &ref
		}
		if week.Existing != nil {
			id := week.Existing.ID
			dto.Existing = &id
		}
		weeks = append(weeks, dto)
	}
	return analysisDTO{
		SeriesID:    analysis.SeriesID,
		SeriesTotal: analysis.SeriesTotal,
		Anchor: anchorDTO{
			RoomID:    analysis.Anchor.RoomID,
			Date:      analysis.Anchor.Date,
			Start:     analysis.Anchor.Start.String(),
			End:       analysis.Anchor.End.String(),
			BaseTitle: analysis.Anchor.BaseTitle,
		},
		Weeks: weeks,
	}
}

func toSeriesReportResponse(report application.SeriesReport) seriesReportResponse {
	return seriesReportResponse{
		Analysis: toAnalysisDTO(report.Analysis),
		DryRun:   report.DryRun,
		Inserted: report.Result.InsertedCount,
		Created:  toReservationDTOs(report.Result.Candidates),
		Failures: toFailureDTOs(report.Result.Failures),
	}
}
