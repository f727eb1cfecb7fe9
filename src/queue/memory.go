package queue

import (
	"context"

	logger "github.com/sirupsen/logrus"
)

// Memory is an in-process queue used in tests and in single-binary
// deployments without Kafka. Same contract: at-least-once, handler must be
// idempotent.
type Memory struct {
	tasks chan MaterializeTask
}

func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 256
	}
	return &Memory{tasks: make(chan MaterializeTask, buffer)}
}

func (m *Memory) PublishMaterialize(ctx context.Context, orderID uint) error {
	select {
	case m.tasks <- MaterializeTask{OrderID: orderID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes tasks until the context is cancelled. A failed task is
// re-enqueued once the handler returns, mirroring broker redelivery.
func (m *Memory) Run(ctx context.Context, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-m.tasks:
			if err := handler(ctx, task.OrderID); err != nil {
				logger.WithFields(map[string]interface{}{
					"order_id": task.OrderID,
				}).WithError(err).Error("Materialize handler failed, re-enqueueing")
				select {
				case m.tasks <- task:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Drain synchronously processes everything currently queued. Test helper.
func (m *Memory) Drain(ctx context.Context, handler Handler) error {
	for {
		select {
		case task := <-m.tasks:
			if err := handler(ctx, task.OrderID); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (m *Memory) Close() error {
	return nil
}
