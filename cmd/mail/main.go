package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/config"
	"github.com/entoto-dev/site-attendance/backend/internal/database"
	"github.com/entoto-dev/site-attendance/backend/internal/logger"
	"github.com/entoto-dev/site-attendance/backend/internal/mailer"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
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
	 * database, read side only
	 **********************************************/
	dbpool, err := database.Open(cfg)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		log.Error("failed to create mail client", zap.Error(err))
		return err
	}
	defer client.Close()

	// fail fast on a wrong smtp setup
	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	err = client.DialWithContext(dialCtx)
	cancel()
	if err != nil {
		log.Error("failed to connect to mail server", zap.Error(err))
		return err
	}

	worker := mailer.NewWorker(cfg.Email.SMTP.Username, repo, client, log)

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

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // durable
		false, // keep the queue without consumers
		false,
		false,
		nil,
	)
	if err != nil {
		log.Error("failed to declare queue", zap.Error(err))
		return err
	}

	// exports are heavy, take one at a time
	if err := ch.Qos(1, 0, false); err != nil {
		log.Error("failed to set qos", zap.Error(err))
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Error("failed to consume queue", zap.Error(err))
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}

				switch worker.Handle(ctx, msg.Body) {
				case mailer.Ack:
					_ = msg.Ack(false)
				case mailer.Retry:
					_ = msg.Nack(false, true)
				default:
					_ = msg.Nack(false, false)
				}
			}
		}
	}()

	log.Info("waiting for export mails", zap.String("queue", q.Name))
	<-sigChan

	log.Info("shutting down mail worker")
	stop()
	wg.Wait()
	log.Info("mail worker stopped")

	return nil
}
