package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter dispatches events synchronously to handlers
// registered in memory. It is safe for concurrent use.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new InMemoryEventEmitter.
// If logger is nil, the default logger is used.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		logger:   logger.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler adds a handler that will receive all subsequently
// emitted events.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler",
		slog.Int("handler_count", len(e.handlers)))
}

// EmitEvent publishes the event to every registered handler. A failing
// handler does not stop delivery to the remaining handlers; the first
// error encountered is returned. Emission stops early if the context is
// cancelled.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *TaskRequestEvent) error {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := e.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	if len(handlers) == 0 {
		log.Warn("no handlers registered for event")
		return nil
	}

	log.Debug("emitting event", slog.Int("handler_count", len(handlers)))

	var firstErr error
	for i, handler := range handlers {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}

		if err := handler.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event",
				slog.String("error", err.Error()),
				slog.Int("handler_index", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
