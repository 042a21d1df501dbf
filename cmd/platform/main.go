package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"creatorlink-platform/pkg/config"
	"creatorlink-platform/pkg/db"
	"creatorlink-platform/pkg/health"
	"creatorlink-platform/pkg/logger"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/pkg/redis"
	"creatorlink-platform/pkg/sequence"
	"creatorlink-platform/pkg/server"
	"creatorlink-platform/pkg/task"
	"creatorlink-platform/services/application"
	"creatorlink-platform/services/campaign"
	"creatorlink-platform/services/tracking"
	"creatorlink-platform/services/transaction"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		middleware.AccessControlModule,
		fx.Provide(provideSnowflakeNode),
		server.Module,
		health.Module,
		campaign.Module,
		application.Module,
		tracking.Module,
		transaction.Module,
		fx.Invoke(db.Otel, db.Metric, health.RegisterRoutes),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
