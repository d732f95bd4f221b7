package intent

import (
	"strconv"
	"strings"

	"github.com/edgard/dymbot/internal/config"
)

// Kind is the intent class of an event.
type Kind int

// Intent kinds.
const (
	FreeText Kind = iota
	Command
	MenuChoice
	Selection
)

// Cmd is a recognised slash command.
type Cmd int

// Commands.
const (
	CmdNone Cmd = iota
	CmdStart
	CmdAdmin
	CmdDebug
)

// Action is an admin menu entry or a navigation button.
type Action int

// Menu actions.
const (
	ActionNone Action = iota
	ActionReport
	ActionListAdmins
	ActionAddAdmin
	ActionClearAdmins
	ActionClearCustomers
	ActionBroadcast
	ActionChat
	ActionDetailedReport
	ActionDigest
	ActionBack
	ActionCancel
	ActionEndChat
)

// Choice is an inline keyboard selection.
type Choice int

// Inline choices.
const (
	ChoiceUnknown Choice = iota
	ChoiceConfirmClearAdmins
	ChoiceCancelClearAdmins
	ChoiceConfirmClearCustomers
	ChoiceCancelClearCustomers
	ChoicePickCustomer
	ChoiceCancelPick
)

// Selection payloads carried by inline buttons.
const (
	TokenConfirmClearAdmins    = "confirm_clear_admins"
	TokenCancelClearAdmins     = "cancel_clear_admins"
	TokenConfirmClearCustomers = "confirm_clear"
	TokenCancelClearCustomers  = "cancel_clear"
	TokenPickCustomerPrefix    = "admin_chat_"
	TokenCancelPick            = "cancel_chat_select"
)

// PickCustomerToken returns the selection payload that pins customerID.
func PickCustomerToken(customerID int64) string {
	return TokenPickCustomerPrefix + strconv.FormatInt(customerID, 10)
}

// Intent is the parsed meaning of an event.
type Intent struct {
	Kind    Kind
	Command Cmd
	Action  Action
	Choice  Choice
	// Target is the customer id of ChoicePickCustomer.
	Target int64
	// Text is the trimmed message text.
	Text string
}

// Parser maps events to intents.
type Parser struct {
	labels map[string]Action
}

// NewParser builds a parser recognising the configured menu captions.
func NewParser(labels config.LabelsConfig) *Parser {
	return &Parser{labels: map[string]Action{
		labels.Report:         ActionReport,
		labels.ListAdmins:     ActionListAdmins,
		labels.AddAdmin:       ActionAddAdmin,
		labels.ClearAdmins:    ActionClearAdmins,
		labels.ClearCustomers: ActionClearCustomers,
		labels.Broadcast:      ActionBroadcast,
		labels.ChatWithClient: ActionChat,
		labels.DetailedReport: ActionDetailedReport,
		labels.Digest:         ActionDigest,
		labels.Back:           ActionBack,
		labels.Cancel:         ActionCancel,
		labels.EndChat:        ActionEndChat,
	}}
}

// Parse classifies ev. Unknown commands are free text.
func (p *Parser) Parse(ev Event) Intent {
	if ev.Kind == EventSelection {
		return parseSelection(ev.ChoiceID)
	}

	text := strings.TrimSpace(ev.Text)
	if cmd := parseCommand(text); cmd != CmdNone {
		return Intent{Kind: Command, Command: cmd, Text: text}
	}
	if action, ok := p.labels[text]; ok {
		return Intent{Kind: MenuChoice, Action: action, Text: text}
	}
	return Intent{Kind: FreeText, Text: text}
}

func parseCommand(text string) Cmd {
	if !strings.HasPrefix(text, "/") {
		return CmdNone
	}
	head, _, _ := strings.Cut(text, " ")
	head, _, _ = strings.Cut(head, "@")

	switch strings.ToLower(head) {
	case "/start":
		return CmdStart
	case "/admin":
		return CmdAdmin
	case "/debug":
		return CmdDebug
	default:
		return CmdNone
	}
}

func parseSelection(data string) Intent {
	it := Intent{Kind: Selection, Text: data}

	switch data {
	case TokenConfirmClearAdmins:
		it.Choice = ChoiceConfirmClearAdmins
	case TokenCancelClearAdmins:
		it.Choice = ChoiceCancelClearAdmins
	case TokenConfirmClearCustomers:
		it.Choice = ChoiceConfirmClearCustomers
	case TokenCancelClearCustomers:
		it.Choice = ChoiceCancelClearCustomers
	case TokenCancelPick:
		it.Choice = ChoiceCancelPick
	default:
		if raw, ok := strings.CutPrefix(data, TokenPickCustomerPrefix); ok {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				it.Choice = ChoicePickCustomer
				it.Target = id
			}
		}
	}
	return it
}
