package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/dymbot/internal/intent"
)

// Dispatcher consumes inbound events.
type Dispatcher interface {
	Handle(ctx context.Context, ev intent.Event)
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Dispatcher Dispatcher
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, ev intent.Event)

// Handle calls f(ctx, ev).
func (f DispatcherFunc) Handle(ctx context.Context, ev intent.Event) {
	f(ctx, ev)
}
