package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzylinski/vatworker/internal/adapter/config"
	"github.com/mzylinski/vatworker/internal/adapter/logger"
	"github.com/mzylinski/vatworker/internal/adapter/mq"
	"github.com/mzylinski/vatworker/internal/adapter/storage"
	"github.com/mzylinski/vatworker/internal/adapter/storage/repository"
	"github.com/mzylinski/vatworker/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	defer db.Close()

	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("order repo creating error", zap.Error(err))
		return
	}

	broker, err := mq.NewClient(conf.Broker, log.Named("RabbitMQ"))
	if err != nil {
		log.Error("broker client creating error", zap.Error(err))
		return
	}

	worker, err := service.NewWorker(repo, broker, conf.Worker, conf.Broker.Queue, log.Named("Worker"))
	if err != nil {
		log.Error("worker creating error", zap.Error(err))
		return
	}

	supervisor, err := service.NewSupervisor(worker, broker, conf.Worker.ShutdownTimeout, log.Named("Supervisor"))
	if err != nil {
		log.Error("supervisor creating error", zap.Error(err))
		return
	}

	if err := supervisor.Start(ctx); err != nil {
		log.Error("worker start error", zap.Error(err))
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(ctx, conf.Worker.ShutdownTimeout+time.Second)
	defer cancel()

	if err := supervisor.Stop(stopCtx); err != nil {
		log.Error("worker stop error", zap.Error(err))
		return
	}

	log.Info("worker stopped, resources released")
}
