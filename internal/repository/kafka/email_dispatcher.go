package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"onlineShop/domain"
	"onlineShop/pkg/logger"
	"onlineShop/pkg/metrics"

	"github.com/IBM/sarama"
)

type Dispatcher interface {
	DispatchVerificationEmail(ctx context.Context, email, name string)
	Close()
}

// EmailDispatcher publishes email jobs without waiting for the broker.
type EmailDispatcher struct {
	producer sarama.AsyncProducer
	topic    string
	wg       sync.WaitGroup
}

func NewEmailDispatcher(brokers []string, topic string) (*EmailDispatcher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3

	p, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}

	return NewEmailDispatcherWithProducer(p, topic), nil
}

// NewEmailDispatcherWithProducer takes ownership of p. Its config must return
// successes and errors; both channels are drained here.
func NewEmailDispatcherWithProducer(p sarama.AsyncProducer, topic string) *EmailDispatcher {
	d := &EmailDispatcher{producer: p, topic: topic}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		for msg := range p.Successes() {
			metrics.EmailJobs.WithLabelValues("enqueued").Inc()
			logger.Debug("Email job enqueued", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		}
	}()
	go func() {
		defer d.wg.Done()
		for perr := range p.Errors() {
			metrics.EmailJobs.WithLabelValues("enqueue_failed").Inc()
			logger.Error("Failed to enqueue email job", "topic", perr.Msg.Topic, "error", perr.Err)
		}
	}()

	return d
}

func (d *EmailDispatcher) DispatchVerificationEmail(ctx context.Context, email, name string) {
	job := domain.NewVerificationEmailJob(email, name)

	payload, err := json.Marshal(job)
	if err != nil {
		logger.Error("Failed to marshal email job", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(job.ToEmail),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case d.producer.Input() <- msg:
	case <-ctx.Done():
		metrics.EmailJobs.WithLabelValues("dropped").Inc()
		logger.Warn("Email job dropped", "job_id", job.ID, "error", ctx.Err())
	}
}

// Close flushes buffered messages and waits for the drain goroutines.
func (d *EmailDispatcher) Close() {
	d.producer.AsyncClose()
	d.wg.Wait()
}

// DiscardDispatcher stands in when the producer cannot be built. Jobs are
// counted as dropped.
type DiscardDispatcher struct{}

func (DiscardDispatcher) DispatchVerificationEmail(_ context.Context, _, name string) {
	metrics.EmailJobs.WithLabelValues("dropped").Inc()
	logger.Warn("Email dispatcher unavailable, verification email dropped", "name", name)
}

func (DiscardDispatcher) Close() {}
