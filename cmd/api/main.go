// Command api serves the shipment booking REST API.
//
//	@title						Jingally Booking API
//	@version					1.0
//	@description				Shipment booking, tracking and payment lifecycle.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/jingally/booking-system/docs"
	"github.com/jingally/booking-system/internal/api"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/core/service"
	mongodb "github.com/jingally/booking-system/internal/infrastructure/db/mongo"
	pgstore "github.com/jingally/booking-system/internal/infrastructure/db/postgres"
	redisstore "github.com/jingally/booking-system/internal/infrastructure/db/redis"
	"github.com/jingally/booking-system/internal/infrastructure/http/handlers"
	"github.com/jingally/booking-system/internal/infrastructure/mail"
	"github.com/jingally/booking-system/internal/infrastructure/messaging/kafka"
	"github.com/jingally/booking-system/internal/infrastructure/notify"
	"github.com/jingally/booking-system/internal/infrastructure/outbox"
	"github.com/jingally/booking-system/internal/infrastructure/queue"
	"github.com/jingally/booking-system/internal/pkg/config"
	"github.com/jingally/booking-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Pretty()})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer disconnectMongo(mongoClient, log)

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer closeWith(log, "redis", rdb.Close)

	users := mongodb.NewUserRepository(db)
	guides := mongodb.NewPriceGuideRepository(db)
	outboxRepo := mongodb.NewOutboxRepository(db)
	media := mongodb.NewMediaStorage(db, cfg.Storage.PublicBaseURL)

	checks := map[string]handlers.Check{
		"mongodb": handlers.MongoCheck(db),
		"redis":   handlers.RedisCheck(rdb),
	}

	indexers := []mongodb.Indexer{users, guides, outboxRepo}
	var shipments ports.ShipmentRepository
	switch cfg.ShipmentStore {
	case config.StorePostgres:
		pg, err := connectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer closeWith(log, "postgres", pg.Close)
		shipments = pgstore.NewShipmentRepository(pg)
		checks["postgres"] = handlers.PostgresCheck(pg)
	default:
		repo := mongodb.NewShipmentRepository(db)
		indexers = append(indexers, repo)
		shipments = repo
	}
	if err := mongodb.EnsureIndexes(ctx, indexers...); err != nil {
		return err
	}

	// --- Notifications ---
	notifier := notify.NewOutboxNotifier(outboxRepo, logger.Component("notifier"))
	mailer := mail.NewBreakerSender(
		mail.NewSMTPMailer(mail.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			From:        cfg.SMTP.From,
			FromName:    cfg.SMTP.FromName,
			ImplicitTLS: cfg.SMTP.ImplicitTLS,
		}),
		mail.DefaultBreakerConfig(),
		logger.Component("mailer"),
	)

	deliveryCfg := outbox.DeliveryConfig{MaxAttempts: cfg.Outbox.MaxAttempts}
	if len(cfg.Kafka.Brokers) > 0 {
		mirror := kafka.NewNotificationMirror(kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer closeWith(log, "kafka", mirror.Close)
		deliveryCfg.Mirror = mirror
	}
	delivery := outbox.NewDelivery(outboxRepo, mailer, deliveryCfg, logger.Component("delivery"))

	dispatcher := queue.NewDispatcher(cfg.Outbox.Workers, delivery, logger.Component("dispatcher"))
	relay := outbox.NewRelay(outboxRepo, dispatcher, outbox.RelayConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		Lease:        cfg.Outbox.Lease,
	}, logger.Component("relay"))

	// Workers outlive the request context so Stop can drain them.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx)
	relay.Start(workerCtx)

	// --- Services ---
	shipmentService := service.NewShipmentService(service.ShipmentDeps{
		Shipments:   shipments,
		Users:       users,
		PriceGuides: guides,
		Notifier:    notifier,
		Storage:     media,
		Idempotency: redisstore.NewIdempotencyStore(rdb),
		AdminEmails: cfg.AdminEmails,
	}, logger.Component("shipments"))
	priceGuideService := service.NewPriceGuideService(guides, logger.Component("price_guides"))
	authService := service.NewAuthService(
		users,
		redisstore.NewVerificationCodeStore(rdb),
		notifier,
		cfg.JWTSecret,
		cfg.TokenTTL,
		logger.Component("auth"),
	)

	e := api.NewRouter(api.Deps{
		Shipments:   shipmentService,
		PriceGuides: priceGuideService,
		Auth:        authService,
		Media:       media,
		Checks:      checks,
		JWTSecret:   cfg.JWTSecret,
		Logger:      log,
	})

	// --- Serve ---
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.ShipmentStore).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	// The relay feeds the dispatcher, so it stops first.
	relay.Stop()
	dispatcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func connectPostgres(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	pg, err := pgstore.Connect(ctx, pgstore.Config{
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := pgstore.Migrate(ctx, pg); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

func disconnectMongo(client *mongo.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}

func closeWith(log zerolog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn().Err(err).Str("dependency", name).Msg("close failed")
	}
}
