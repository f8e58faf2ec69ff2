package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"onlineShop/internal/repository/kafka"
	"onlineShop/internal/repository/notification"
	"onlineShop/pkg/config"
	"onlineShop/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()

	mailjet := notification.NewMailjetRepository(cfg.Mailjet)

	consumer, err := kafka.NewEmailConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.EmailTopic, mailjet)
	if err != nil {
		logger.Fatal("Failed to create email consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Email worker started", "topic", cfg.Kafka.EmailTopic, "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("Email consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		logger.Error("Failed to close consumer group", "error", err)
	}

	logger.Info("Email worker stopped")
}
