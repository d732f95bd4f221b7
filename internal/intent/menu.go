package intent

import (
	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/messenger"
)

// AdminMenu is the reply keyboard of the admin panel.
func AdminMenu(l config.LabelsConfig) messenger.Keyboard {
	return messenger.ReplyKeyboard(
		l.Report,
		l.ListAdmins,
		l.AddAdmin,
		l.ClearAdmins,
		l.ClearCustomers,
		l.Broadcast,
		l.ChatWithClient,
		l.DetailedReport,
		l.Digest,
		l.Back,
	)
}

// CancelMenu is the keyboard of the text-input admin flows.
func CancelMenu(l config.LabelsConfig) messenger.Keyboard {
	return messenger.ReplyKeyboard(l.Cancel)
}

// EndChatMenu is the keyboard of a pinned chat.
func EndChatMenu(l config.LabelsConfig) messenger.Keyboard {
	return messenger.ReplyKeyboard(l.EndChat)
}
