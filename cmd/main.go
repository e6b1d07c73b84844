package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/config"
	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/server"
)

const shutdownTimeOut = 10 * time.Second

func setupLogger(cfg config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func main() {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	cfg := config.Init()
	setupLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	if err := database.ConnectAndMigrate(ctx, cfg.Database); err != nil {
		cancel()
		logrus.Panicf("failed to initialize database, error: %v", err)
	}
	cancel()
	logrus.WithField("backend", cfg.Database.Backend).Info("database ready")

	if cfg.SeedDemo {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		if err := dbhelper.SeedDemo(ctx); err != nil {
			logrus.WithError(err).Error("failed to seed demo restaurant")
		}
		cancel()
	}

	srv := server.SetupRoutes()
	go func() {
		logrus.Infof("server listening on %s", cfg.Port)
		if err := srv.Run(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Panicf("failed to run server, error: %v", err)
		}
	}()

	<-done

	logrus.Info("shutting down...")
	if err := srv.Shutdown(shutdownTimeOut); err != nil {
		logrus.WithError(err).Error("failed to gracefully shutdown server")
	}
	if err := database.ShutdownDatabase(); err != nil {
		logrus.WithError(err).Error("failed to close database connection!")
	}

	logrus.Info("system is shut ..zzz")
}
