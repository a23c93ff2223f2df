package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ingmontoya/tavira-ledger/internal/adapters/database/pgsql"
	"github.com/ingmontoya/tavira-ledger/internal/adapters/events/kafka"
	"github.com/ingmontoya/tavira-ledger/internal/adapters/events/logpub"
	portsevents "github.com/ingmontoya/tavira-ledger/internal/core/ports/events"
	"github.com/ingmontoya/tavira-ledger/internal/core/services"
	"github.com/ingmontoya/tavira-ledger/internal/handlers"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
	"github.com/ingmontoya/tavira-ledger/pkg/config"
	"github.com/ingmontoya/tavira-ledger/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if cfg.RunMigration {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var publisher portsevents.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer func() {
			if cerr := kafkaPublisher.Close(); cerr != nil {
				logger.Error("Error closing kafka publisher", slog.String("error", cerr.Error()))
			}
		}()
		publisher = kafkaPublisher
		logger.Info("Kafka event publisher configured", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		publisher = logpub.NewPublisher()
		logger.Info("No Kafka brokers configured, events go to the log.")
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewContainer(&repos, publisher, nil, policyFromConfig(cfg))

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, container)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// policyFromConfig overlays the configured knobs on the statutory defaults.
// Account codes stay at the standard PUC values; they change per deployment
// only through chart provisioning, not configuration.
func policyFromConfig(cfg *config.Config) services.Policy {
	policy := services.DefaultPolicy()
	policy.ReservePercentage = cfg.ReserveFundPercentage
	policy.LateFeeMonthlyRate = cfg.LateFeeMonthlyRate
	policy.GraceDays = cfg.LateFeeGraceDays
	policy.ValidationMonthsBack = cfg.OpenWindowMonthsBack
	policy.ValidationMonthsForward = cfg.OpenWindowMonthsFwd
	return policy
}

// runMigrations applies all pending migrations over a temporary database/sql
// connection using the pgx stdlib driver.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
