// Command server runs the conference registration and activity service.
// main wires dependencies and keeps the server lifecycle small; business
// logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"confreg/internal/activity/broadcast"
	activityhandler "confreg/internal/activity/handler"
	actlogger "confreg/internal/activity/logger"
	actstore "confreg/internal/activity/store"
	"confreg/internal/auditquery"
	auditservice "confreg/internal/auditquery/service"
	httpapi "confreg/internal/http"
	"confreg/internal/platform/config"
	"confreg/internal/platform/httpserver"
	"confreg/internal/platform/logger"
	platformredis "confreg/internal/platform/redis"
	"confreg/internal/registration"
	regservice "confreg/internal/registration/service"
	regstore "confreg/internal/registration/store"
	"confreg/internal/token"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	// Stores: Postgres when configured, in-memory otherwise (development).
	var (
		db            *sql.DB
		recordStore   actstore.Store
		registrations regservice.RegistrationStore
		history       regservice.HistoryStore
		notes         regservice.NoteStore
		attachments   regservice.AttachmentStore
		payments      regservice.PaymentStore
		transactor    regservice.Transactor
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return err
		}
		recordStore = actstore.NewPostgres(db)
		registrations = regstore.NewPostgresRegistrationStore(db)
		history = regstore.NewPostgresHistoryStore(db)
		notes = regstore.NewPostgresNoteStore(db)
		attachments = regstore.NewPostgresAttachmentStore(db)
		payments = regstore.NewPostgresPaymentStore(db)
		transactor = regstore.NewSQLTransactor(db)
	} else {
		log.Warn("CONFREG_POSTGRES_DSN not set, using in-memory stores")
		recordStore = actstore.NewInMemoryStore()
		registrations = regstore.NewInMemoryRegistrationStore()
		history = regstore.NewInMemoryHistoryStore()
		notes = regstore.NewInMemoryNoteStore()
		attachments = regstore.NewInMemoryAttachmentStore()
		payments = regstore.NewInMemoryPaymentStore()
		transactor = regstore.NewInMemoryTransactor()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Activity fan-out, optionally mirroring system records onto Kafka.
	var emitterOpts []actlogger.Option
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := broadcast.New(cfg.KafkaBrokers, cfg.ActivityTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		emitterOpts = append(emitterOpts, actlogger.WithBroadcaster(publisher))
	}
	emitter := actlogger.New(recordStore, log, emitterOpts...)

	regSvc := registration.NewService(registrations, history, notes, attachments, payments, transactor, emitter,
		regservice.WithLogger(log))

	auditOpts := []auditservice.Option{auditservice.WithLogger(log)}
	if cache := auditservice.NewRedisStatsCache(redisClient); cache != nil {
		auditOpts = append(auditOpts, auditservice.WithStatsCache(cache))
	}
	auditSvc := auditquery.NewService(recordStore, auditOpts...)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		TokenValidator: token.NewValidator(tokens),
		Registrations:  registration.NewHandler(regSvc, log),
		Activity:       activityhandler.New(recordStore, log),
		AuditQuery:     auditquery.NewHandler(auditSvc, log),
		Health:         healthHandler(db, redisClient),
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting confreg server", "addr", cfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
