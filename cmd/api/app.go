package main

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/database"
	"github.com/xavierca1/ligue-crm/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/infra/memory"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db     *sql.DB
	broker *queue.RabbitMQ
	mem    *memory.Store

	leads      entity.LeadRepositoryInterface
	bookings   entity.BookingRepository
	emailLogs  entity.EmailLogRepository
	activities entity.ActivityRepository
	notes      entity.NoteRepository
}

func newApp(cfg *config.Config, logger *slog.Logger, withBroker bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory record store, data is lost on restart")
		a.mem = memory.NewStore()
		a.leads = a.mem.Leads()
		a.bookings = a.mem.Bookings()
		a.emailLogs = a.mem.EmailLogs()
		a.activities = a.mem.Activities()
		a.notes = a.mem.Notes()
	} else {
		db, err := database.NewDBConnection(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.leads = database.NewLeadRepository(db)
		a.bookings = database.NewBookingRepository(db)
		a.emailLogs = database.NewEmailLogRepository(db)
		a.activities = database.NewActivityRepository(db)
		a.notes = database.NewNoteRepository(db)
	}

	if withBroker && cfg.RabbitMQURL != "" {
		broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.broker = broker
	}

	return a, nil
}

func (a *app) Close() {
	if a.broker != nil {
		a.broker.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) publisher() usecase.EventPublisher {
	if a.broker == nil {
		return queue.NopPublisher{}
	}
	return queue.NewProducer(a.broker.Ch)
}

func (a *app) router() http.Handler {
	audit := usecase.NewActivityLogger(a.activities, a.logger)
	pub := a.publisher()

	bookingUC := usecase.NewReconcileBookingUseCase(a.bookings, a.leads, audit, pub, a.logger)
	emailUC := usecase.NewReconcileEmailUseCase(a.emailLogs, pub, a.logger)
	timelineUC := usecase.NewGetTimelineUseCase(a.leads, a.notes, a.activities)

	webhookHandler := handlers.NewWebhookHandler(
		bookingUC,
		emailUC,
		a.cfg.CalWebhookSecret,
		a.cfg.ResendWebhookSecret,
		a.cfg.WebhookMaxBodyBytes,
		a.logger,
	)
	timelineHandler := handlers.NewTimelineHandler(timelineUC, a.logger)

	var (
		pinger handlers.Pinger
		broker handlers.BrokerStatus
	)
	if a.db != nil {
		pinger = a.db
	}
	if a.broker != nil {
		broker = a.broker
	}
	healthHandler := handlers.NewHealthHandler(pinger, broker, Version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/cal", webhookHandler.HandleScheduling)
		r.Post("/resend", webhookHandler.HandleEmail)
	})

	r.Get("/leads/{id}/timeline", timelineHandler.Handle)

	return r
}
