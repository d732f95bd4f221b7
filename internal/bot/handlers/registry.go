package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is one entry of the handler table.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns the handler table: the three commands and every
// callback query. Plain text reaches the dispatcher through NewDefaultHandler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)
	update := NewUpdateHandler(deps)
	middleware := []tgbot.Middleware{Recover(deps)}

	for _, cmd := range []string{"start", "admin", "debug"} {
		handlers["/"+cmd] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     cmd,
			Handler:     update,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  middleware,
		}
	}
	handlers["callback_query"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "",
		Handler:     update,
		MatchType:   tgbot.MatchTypePrefix,
		Middleware:  middleware,
	}

	return handlers
}

// NewDefaultHandler returns the handler for updates no registered pattern matches.
func NewDefaultHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return Recover(deps)(NewUpdateHandler(deps))
}
