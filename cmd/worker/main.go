package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	logrus "github.com/sirupsen/logrus"

	"crowdfund/internal/events"
	"crowdfund/internal/handlers/business"
	"crowdfund/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}
	// Initialize logger
	config.InitLogger(cfg.LogLevel, true)

	if !cfg.Database.Enabled() || !cfg.Broker.Enabled() {
		logrus.Fatal("worker needs both DB_HOST and RABBITMQ_HOST")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	config.InitDB(cfg.Database)

	// Initialize RabbitMQ
	config.InitRabbitMQ(cfg.Broker)
	defer config.RabbitMQ.Close()

	msgConsumer, err := config.NewConsumer(config.FundraiserEventsQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Fundraiser projection worker started, waiting for messages...")

	err = msgConsumer.Consume(ctx, func(msg []byte) error {
		var evt events.Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			// a message that cannot be decoded will never succeed, drop it
			logrus.Errorf("Failed to unmarshal message: %v", err)
			return nil
		}

		if err := business.ApplyEvent(config.DB, evt); err != nil {
			if errors.Is(err, business.ErrUnknownEventType) {
				logrus.WithField("type", evt.Type).Warn("Skipping unknown event")
				return nil
			}
			return err
		}

		logrus.WithFields(logrus.Fields{
			"type":      evt.Type,
			"campaign":  evt.Campaign,
			"signature": evt.Signature,
			"amount":    evt.Amount,
		}).Info("Event projected")
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatal("Consumer stopped: ", err)
	}
}
