package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Handler processes the payload of one task type.
type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// TaskHandlerFunc handles a decoded payload of type T.
type TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

// ErrPayloadDecode is returned when a task payload does not decode into the handler type.
var ErrPayloadDecode = errors.New("failed to decode task payload")

// NewTaskHandler registers fn under the qualified type name of T, matching
// the default task name the Enqueuer assigns to payloads of type T.
func NewTaskHandler[T any](fn TaskHandlerFunc[T]) Handler {
	var payload T
	return &taskHandler[T]{name: qualifiedStructName(payload), fn: fn}
}

// NewNamedTaskHandler registers fn under an explicit task name.
func NewNamedTaskHandler[T any](name string, fn TaskHandlerFunc[T]) Handler {
	return &taskHandler[T]{name: name, fn: fn}
}

type taskHandler[T any] struct {
	name string
	fn   TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Name() string {
	return h.name
}

func (h *taskHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return errors.Join(ErrPayloadDecode, fmt.Errorf("%s: %w", h.name, err))
	}
	return h.fn(ctx, t)
}
