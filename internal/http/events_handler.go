package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/roombook/internal/events"
)

// EventsHandler streams reservation change notifications to clients as
// server-sent events.
type EventsHandler struct {
	broker *events.Broker
	logger *slog.Logger
}

func NewEventsHandler(broker *events.Broker, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{broker: broker, logger: defaultLogger(logger)}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.broker == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "EventsHandler", "Stream")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.broker.Subscribe(r.Context())
	defer cancel()

	logger.InfoContext(r.Context(), "event stream opened")

	for {
		select {
		case <-r.Context().Done():
			logger.InfoContext(r.Context(), "event stream closed")
			return
		case event, open := <-ch:
			if !open {
				return
			}
			if err := writeSSE(w, event); err != nil {
				logger.ErrorContext(r.Context(), "failed to write event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
	return err
}
