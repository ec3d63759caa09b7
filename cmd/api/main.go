package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/auth"
	"github.com/entoto-dev/site-attendance/backend/internal/config"
	"github.com/entoto-dev/site-attendance/backend/internal/database"
	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/handler"
	"github.com/entoto-dev/site-attendance/backend/internal/logger"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	/**********************************************
	 * configuration and logger
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	/**********************************************
	 * database
	 **********************************************/
	dbpool, err := database.Open(cfg)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer dbpool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(dbpool, log); err != nil {
			log.Error("failed to migrate database", zap.Error(err))
			return err
		}
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * make sure the initial admin exists
	 **********************************************/
	passwordHash, err := auth.HashPassword(cfg.InitialAdmin.Password)
	if err != nil {
		log.Error("failed to hash initial admin password", zap.Error(err))
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.QueryTimeout)*time.Second)
	created, err := repo.EnsureAdmin(ctx, &domain.Admin{Username: cfg.InitialAdmin.Username, PasswordHash: passwordHash})
	cancel()
	if err != nil {
		log.Error("failed to create initial admin", zap.Error(err))
		return err
	}
	if created {
		log.Info("initial admin created", zap.String("username", cfg.InitialAdmin.Username))
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		log.Error("failed to connect to rabbitmq", zap.Error(err))
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("failed to open channel", zap.Error(err))
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Error("failed to declare queue", zap.Error(err))
		return err
	}

	/**********************************************
	 * redis and sessions
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	revocations := auth.NewRedisRevocations(rdb, time.Duration(cfg.Redis.OperationTimeout)*time.Second)
	sessions := auth.NewSessions(cfg.Session.Secret, time.Duration(cfg.Session.Expiration)*time.Second, revocations)

	/**********************************************
	 * handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, sessions, ch, log)
	if err != nil {
		log.Error("failed to create handler", zap.Error(err))
		return err
	}
	h.RegisterRoutes()

	/**********************************************
	 * http server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     zap.NewStdLog(log),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Error("server failed", zap.Error(err))
		return err
	case <-quit:
	}
	log.Info("shutting down server")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to shut down server", zap.Error(err))
		return err
	}
	log.Info("server stopped")

	return nil
}
