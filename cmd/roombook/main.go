package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/config"
	"github.com/example/roombook/internal/events"
	httptransport "github.com/example/roombook/internal/http"
	"github.com/example/roombook/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	broker := events.NewBroker(cfg.EventBufferSize)
	now := time.Now

	reservationService := application.NewReservationService(application.ReservationServiceConfig{
		Reservations:       storage.Reservations,
		Rooms:              storage.Rooms,
		Periods:            storage.Periods,
		Counters:           storage.Counters,
		Events:             broker,
		DeletePasswordHash: cfg.DeletePasswordHash,
		Now:                now,
		Logger:             logger,
	})
	seriesService := application.NewSeriesService(storage.Reservations, storage.Counters, broker, now, logger)
	roomService := application.NewRoomService(storage.Rooms, storage.Counters, now, logger)
	periodService := application.NewPeriodService(storage.Periods, storage.Counters, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:        httptransport.NewRoomHandler(roomService, logger),
		Periods:      httptransport.NewPeriodHandler(periodService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Series:       httptransport.NewSeriesHandler(seriesService, logger),
		Events:       httptransport.NewEventsHandler(broker, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	// No WriteTimeout: /events holds its response open indefinitely.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("roombook API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
