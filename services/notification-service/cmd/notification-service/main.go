package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vetlinkhq/vetsched/libs/config"
	"github.com/vetlinkhq/vetsched/libs/db"
	"github.com/vetlinkhq/vetsched/libs/httpx"
	"github.com/vetlinkhq/vetsched/libs/kafkax"
	otelx "github.com/vetlinkhq/vetsched/libs/otel"
	"github.com/vetlinkhq/vetsched/libs/runtime"
	"github.com/vetlinkhq/vetsched/services/notification-service/internal/consumer"
	"github.com/vetlinkhq/vetsched/services/notification-service/internal/handlers"
	"github.com/vetlinkhq/vetsched/services/notification-service/internal/inbox"
	"github.com/vetlinkhq/vetsched/services/notification-service/internal/push"
	"github.com/vetlinkhq/vetsched/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// appointmentEvent covers both reminder-due and booking lifecycle payloads;
// unused fields stay empty.
type appointmentEvent struct {
	ReminderJobID string `json:"reminder_job_id"`
	AppointmentID string `json:"appointment_id"`
	Kind          string `json:"kind"`
	RecipientID   string `json:"recipient_id"`
	ClientID      string `json:"client_id"`
	ScheduledAt   string `json:"scheduled_at"`
}

func (e appointmentEvent) recipient() string {
	if e.RecipientID != "" {
		return e.RecipientID
	}
	return e.ClientID
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	inboxRepo := inbox.NewRepository(pool)
	repo := storage.NewRepository(pool)

	var pushSender push.Sender
	switch strings.ToLower(config.String("PUSH_PROVIDER", "noop")) {
	case "webhook":
		pushSender = push.NewWebhookSender(config.String("PUSH_WEBHOOK_URL", ""), config.String("PUSH_WEBHOOK_TOKEN", ""))
	default:
		pushSender = push.NewNoopSender()
	}

	handle := func(ctx context.Context, msg kafka.Message) error {
		var evt appointmentEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		recipient := evt.recipient()
		if recipient == "" || evt.ScheduledAt == "" {
			logger.Error("missing event fields", "topic", msg.Topic)
			return nil
		}
		scheduledAt, err := time.Parse(time.RFC3339, evt.ScheduledAt)
		if err != nil {
			logger.Error("invalid scheduled_at", "err", err, "topic", msg.Topic)
			return nil
		}

		meta := kafkax.ExtractEventMeta(msg)
		eventType := meta.EventType
		if eventType == "" {
			eventType = msg.Topic
		}
		pushMsg, ok := push.Render(eventType, push.EventDetails{Kind: evt.Kind, ScheduledAt: scheduledAt})
		if !ok {
			logger.Info("no push template for event", "event_type", eventType)
			return nil
		}

		tokens, err := repo.DeviceTokens(ctx, recipient)
		if err != nil {
			return err
		}
		for _, token := range tokens {
			delivery := storage.PushDelivery{
				RecipientID: recipient,
				DeviceToken: token.Token,
				EventID:     meta.EventID,
				EventType:   eventType,
				ProviderID:  pushSender.ProviderID(),
				Status:      "sent",
			}
			if err := pushSender.Send(ctx, token.Token, pushMsg); err != nil {
				delivery.Status = "failed"
				delivery.ErrorReason = err.Error()
				logger.Error("push send failed", "err", err, "recipient_id", recipient)
			}
			if err := repo.RecordDelivery(ctx, delivery); err != nil {
				return err
			}
		}

		logger.Info("event processed",
			"event_type", eventType,
			"recipient_id", recipient,
			"devices", len(tokens),
		)
		return nil
	}

	topics := config.String("KAFKA_CONSUME_TOPICS",
		"scheduling.reminder.due.v1,booking.appointment.scheduled.v1,booking.appointment.rescheduled.v1,booking.appointment.cancelled.v1")
	for _, topic := range strings.Split(topics, ",") {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}, handle)
		go eventConsumer.Run(ctx)
	}

	notificationHandler := handlers.NewNotificationHandler(repo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/notifications", notificationHandler.List)
	mux.HandleFunc("/api/v1/notifications/read", notificationHandler.MarkRead)
	mux.HandleFunc("/api/v1/devices", notificationHandler.RegisterDevice)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
