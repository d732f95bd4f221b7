// Package handlers turns Telegram updates into dispatcher events and holds
// their registration table.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover logs a panicking handler and acknowledges its callback query, if
// any, so the client stops waiting.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log := deps.Logger.With("middleware", "Recover")
				log.ErrorContext(ctx, "Handler panicked", "update_id", update.ID, "panic", r)
				if update.CallbackQuery == nil || bot == nil {
					return
				}
				if _, err := bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
				}); err != nil {
					log.ErrorContext(ctx, "Failed to answer callback query", "error", err)
				}
			}()
			next(ctx, bot, update)
		}
	}
}
