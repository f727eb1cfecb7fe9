package queue

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"
	logger "github.com/sirupsen/logrus"
)

// KafkaPublisher writes materialization tasks to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a producer. All replicas must acknowledge a write
// before an order creation considers the task enqueued.
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
	}

	logger.WithField("brokers", cfg.Brokers).Info("Kafka publisher created")
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishMaterialize(ctx context.Context, orderID uint) error {
	data, err := json.Marshal(MaterializeTask{OrderID: orderID})
	if err != nil {
		return err
	}

	// Keyed by order so redeliveries of the same order stay on one partition.
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(orderID), 10)),
		Value: data,
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"queue":    "kafka",
			"order_id": orderID,
		}).WithError(err).Error("Failed to publish materialize task")
		return err
	}

	logger.WithField("order_id", orderID).Debug("Materialize task published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads materialization tasks from the topic within a consumer
// group. Offsets are committed only after the handler succeeds, giving
// at-least-once delivery.
type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(cfg Config) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.FirstOffset,
		MaxBytes:    10e6,
	})

	logger.WithFields(map[string]interface{}{
		"brokers":  cfg.Brokers,
		"topic":    cfg.Topic,
		"group_id": cfg.GroupID,
	}).Info("Kafka consumer created")
	return &KafkaConsumer{reader: reader}
}

// Run consumes until the context is cancelled. Handler failures are logged
// and the message is left uncommitted for redelivery.
func (c *KafkaConsumer) Run(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.WithError(err).Error("Failed to fetch message")
			return err
		}

		var task MaterializeTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			logger.WithError(err).Error("Dropping malformed materialize task")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return err
			}
			continue
		}

		if err := handler(ctx, task.OrderID); err != nil {
			logger.WithFields(map[string]interface{}{
				"order_id": task.OrderID,
				"offset":   msg.Offset,
			}).WithError(err).Error("Materialize handler failed, task will be redelivered")
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.WithError(err).Error("Failed to commit message")
			return err
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
