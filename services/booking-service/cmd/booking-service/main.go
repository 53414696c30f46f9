package main

import (
	"context"
	"net/http"
	"time"

	"github.com/vetlinkhq/vetsched/libs/clock"
	"github.com/vetlinkhq/vetsched/libs/config"
	"github.com/vetlinkhq/vetsched/libs/db"
	"github.com/vetlinkhq/vetsched/libs/httpx"
	"github.com/vetlinkhq/vetsched/libs/kafkax"
	otelx "github.com/vetlinkhq/vetsched/libs/otel"
	"github.com/vetlinkhq/vetsched/libs/runtime"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/booking"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/directory"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/handlers"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/outbox"
	"github.com/vetlinkhq/vetsched/services/booking-service/internal/store/postgres"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	repo := postgres.NewAppointmentRepo(pool, outboxRepo)

	dirProvider, err := directory.NewProvider(config.String("DIRECTORY_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("directory provider init failed; using static clinic config", "err", err)
		dirProvider = nil
	}

	svc := booking.NewService(repo, clock.System(), dirProvider, logger, booking.Config{
		DefaultClinicID: config.String("DEFAULT_CLINIC_ID", ""),
		SlotStep:        config.Duration("SLOT_STEP", 30*time.Minute),
		WorkdayStart:    config.String("WORKDAY_START", "09:00"),
		WorkdayEnd:      config.String("WORKDAY_END", "17:00"),
	})

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	apptHandler := handlers.NewAppointmentHandler(svc, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/slots", apptHandler.Slots)
	mux.HandleFunc("/api/v1/appointments/request", apptHandler.Request)
	mux.HandleFunc("/api/v1/appointments/schedule", apptHandler.Schedule)
	mux.HandleFunc("/api/v1/appointments/confirm", apptHandler.Confirm)
	mux.HandleFunc("/api/v1/appointments/reschedule", apptHandler.Reschedule)
	mux.HandleFunc("/api/v1/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/complete", apptHandler.Complete)
	mux.HandleFunc("/api/v1/appointments/express", apptHandler.Express)
	mux.HandleFunc("/api/v1/appointments", apptHandler.List)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
