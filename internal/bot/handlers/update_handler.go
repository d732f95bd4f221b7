package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUpdateHandler returns a handler that passes every text message and
// callback query to the dispatcher.
func NewUpdateHandler(deps HandlerDeps) bot.HandlerFunc {
	return updateHandler{deps}.Handle
}

type updateHandler struct {
	deps HandlerDeps
}

func (h updateHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "update")

	ev, ok := EventFromUpdate(update)
	if !ok {
		log.DebugContext(ctx, "Ignoring update without text or selection", "update_id", update.ID)
		return
	}
	h.deps.Dispatcher.Handle(ctx, ev)
}
