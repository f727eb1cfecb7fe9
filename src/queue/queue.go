// Package queue decouples commission materialization from order creation.
// Delivery is at-least-once; handlers must be idempotent.
package queue

import "context"

// MaterializeTask asks the worker to create the commission rows of one order.
type MaterializeTask struct {
	OrderID uint `json:"order_id"`
}

// Publisher enqueues materialization tasks.
type Publisher interface {
	PublishMaterialize(ctx context.Context, orderID uint) error
	Close() error
}

// Handler processes one delivered task. Returning an error leaves the task
// uncommitted so it is redelivered.
type Handler func(ctx context.Context, orderID uint) error
