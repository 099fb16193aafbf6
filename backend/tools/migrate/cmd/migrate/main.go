package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agriweather/backend/libs/db"
	"agriweather/backend/libs/logging"
	"agriweather/backend/tools/migrate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	logger, err := logging.NewServiceLogger("migrate")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		dsn, err = db.Params{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		}.DSN()
		if err != nil {
			logger.Fatal("no database configured", zap.Error(err))
		}
	}

	sqlDB, err := db.NewPostgresDB(dsn)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer sqlDB.Close()

	applied, err := migrate.Run(ctx, sqlDB, logger)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("schema up to date", zap.Int("applied", len(applied)))
}
