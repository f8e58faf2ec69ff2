package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	"onlineShop/pkg/metrics"

	"github.com/IBM/sarama"
)

const (
	verificationSubject = "Verify Your Account"
	verificationBody    = "Hello!\n\nPlease verify your account for %s. Thank you!"
)

// Sender contract interface
type Sender interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, message string) error
}

type EmailConsumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler *emailHandler
}

func NewEmailConsumer(brokers []string, groupID, topic string, sender Sender) (*EmailConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("error creating consumer group: %w", err)
	}

	return &EmailConsumer{
		group:   group,
		topics:  []string{topic},
		handler: &emailHandler{sender: sender},
	}, nil
}

// Run consumes until ctx is cancelled, rejoining the group after each rebalance.
func (c *EmailConsumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			logger.Error("Consumer group error", "error", err)
		}
	}()

	for {
		err := c.group.Consume(ctx, c.topics, c.handler)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			logger.Error("Error consuming in consumer loop", "error", err)
		}

		if ctx.Err() != nil {
			logger.Info("Context cancelled, shutting down consumer")
			return nil
		}
	}
}

func (c *EmailConsumer) Close() error {
	return c.group.Close()
}

type emailHandler struct {
	sender Sender
}

func (h *emailHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *emailHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message, delivered or not. Jobs are not retried.
func (h *emailHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handle(session.Context(), msg); err != nil {
			metrics.EmailJobs.WithLabelValues("send_failed").Inc()
			logger.Error("Failed to process email job",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
		session.MarkMessage(msg, "")
	}

	return nil
}

func (h *emailHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var job domain.EmailJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("error unmarshalling email job: %w", err)
	}

	switch job.Kind {
	case domain.EmailKindVerification:
		if err := h.sender.SendEmail(ctx, job.ToName, job.ToEmail, verificationSubject, fmt.Sprintf(verificationBody, job.ToEmail)); err != nil {
			return fmt.Errorf("error sending verification email %s: %w", job.ID, err)
		}
	default:
		logger.Warn("Ignored email job kind", "kind", job.Kind, "job_id", job.ID)
		return nil
	}

	metrics.EmailJobs.WithLabelValues("sent").Inc()
	logger.Info("Verification email sent", "job_id", job.ID)

	return nil
}
