package survey

import (
	"github.com/looplab/fsm"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/messenger"
)

// Survey states, as stored in the session.
const (
	StateAwaitingConsent = "survey_awaiting_consent"
	StateAwaitingRetake  = "survey_awaiting_retake"
	StateAwaitingHelp    = "survey_awaiting_help"
	StateAppreciate      = "survey_collecting_appreciate"
	StateDislike         = "survey_collecting_dislike"
	StateImprove         = "survey_collecting_improve"
	StateGender          = "survey_collecting_gender"
	StateAge             = "survey_collecting_age"
	StateVisit           = "survey_collecting_visit_freq"

	stateCompleted = "survey_completed"
	stateDeclined  = "survey_declined"
)

const (
	eventAccept  = "accept"
	eventDecline = "decline"
)

// Session field names.
const (
	FieldUsername   = "username"
	FieldFullName   = "full_name"
	FieldIsAdmin    = "is_admin"
	FieldAppreciate = "appreciate"
	FieldDislike    = "dislike"
	FieldImprove    = "improve"
	FieldGender     = "gender"
	FieldAgeGroup   = "age_group"
	FieldVisitFreq  = "visit_freq"
)

var events = fsm.Events{
	{Name: eventAccept, Src: []string{StateAwaitingConsent, StateAwaitingRetake}, Dst: StateAwaitingHelp},
	{Name: eventAccept, Src: []string{StateAwaitingHelp}, Dst: StateAppreciate},
	{Name: eventAccept, Src: []string{StateAppreciate}, Dst: StateDislike},
	{Name: eventAccept, Src: []string{StateDislike}, Dst: StateImprove},
	{Name: eventAccept, Src: []string{StateImprove}, Dst: StateGender},
	{Name: eventAccept, Src: []string{StateGender}, Dst: StateAge},
	{Name: eventAccept, Src: []string{StateAge}, Dst: StateVisit},
	{Name: eventAccept, Src: []string{StateVisit}, Dst: stateCompleted},
	{Name: eventDecline, Src: []string{StateAwaitingConsent, StateAwaitingRetake, StateAwaitingHelp}, Dst: stateDeclined},
}

// step describes the input accepted in one state.
type step struct {
	// field is written with the accepted answer; empty for consent gates.
	field string
	// gate steps decline on the no answer and advance on anything else.
	gate bool
	// options restricts the answer; nil accepts free text.
	options  func(config.SurveyConfig) []string
	rejected func(config.MessagesConfig) string
}

var steps = map[string]step{
	StateAwaitingConsent: {gate: true},
	StateAwaitingRetake:  {gate: true},
	StateAwaitingHelp:    {gate: true},
	StateAppreciate:      {field: FieldAppreciate},
	StateDislike:         {field: FieldDislike},
	StateImprove:         {field: FieldImprove},
	StateGender: {
		field:    FieldGender,
		options:  func(s config.SurveyConfig) []string { return s.GenderOptions },
		rejected: func(m config.MessagesConfig) string { return m.GenderRejected },
	},
	StateAge: {
		field:    FieldAgeGroup,
		options:  func(s config.SurveyConfig) []string { return s.AgeOptions },
		rejected: func(m config.MessagesConfig) string { return m.AgeRejected },
	},
	StateVisit: {
		field:    FieldVisitFreq,
		options:  func(s config.SurveyConfig) []string { return s.VisitOptions },
		rejected: func(m config.MessagesConfig) string { return m.VisitRejected },
	},
}

// Owns reports whether state belongs to a survey flow.
func Owns(state string) bool {
	_, ok := steps[state]
	return ok
}

// prompt returns the message that opens state.
func (e *Engine) prompt(state string, admin bool) (string, messenger.Keyboard) {
	msgs := e.deps.Config.Messages
	sc := e.deps.Config.Survey
	yesNo := messenger.ReplyKeyboard(sc.Yes, sc.No)

	switch state {
	case StateAwaitingConsent:
		return msgs.Welcome, yesNo
	case StateAwaitingRetake:
		if admin {
			return msgs.RetakeAdminPrompt, yesNo
		}
		return msgs.RetakePrompt, yesNo
	case StateAwaitingHelp:
		return msgs.HelpPrompt, yesNo
	case StateAppreciate:
		return msgs.AppreciatePrompt, messenger.RemoveKeyboard()
	case StateDislike:
		return msgs.DislikePrompt, messenger.Keyboard{}
	case StateImprove:
		return msgs.ImprovePrompt, messenger.Keyboard{}
	case StateGender:
		return msgs.GenderPrompt, messenger.ReplyKeyboard(sc.GenderOptions...)
	case StateAge:
		return msgs.AgePrompt, messenger.ReplyKeyboard(sc.AgeOptions...)
	case StateVisit:
		return msgs.VisitPrompt, messenger.ReplyKeyboard(sc.VisitOptions...)
	default:
		return "", messenger.Keyboard{}
	}
}
