// Package admin implements the admin panel: roster management, the two-step
// destructive operations, database reports, the /debug dump and the feedback
// digest.
package admin

import (
	"context"
	"log/slog"

	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
)

// Notifier fans a text out to every admin.
type Notifier interface {
	NotifyAll(ctx context.Context, text string, exclude int64) relay.Tally
}

// Digester summarises customer feedback.
type Digester interface {
	Digest(ctx context.Context, customers []database.Customer) (string, error)
}

// Deps provides dependencies for the admin service.
type Deps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Messenger messenger.Messenger
	Sessions  *session.Store
	Notifier  Notifier
	// Digester is optional; nil disables the feedback digest.
	Digester Digester
	Metrics  *metrics.Metrics
}

// Service runs admin panel actions. Every action checks the actor's role.
type Service struct {
	deps Deps
	log  *slog.Logger
}

// New creates the admin service.
func New(deps Deps) *Service {
	return &Service{deps: deps, log: deps.Logger.With("component", "admin")}
}

// Open shows the admin panel, only to admins and only in private chats.
func (s *Service) Open(ctx context.Context, actor role.Actor, private bool) error {
	msgs := s.deps.Config.Messages
	if err := actor.Require(role.Admin); err != nil {
		s.reply(ctx, actor.ID, msgs.NotAdmin, messenger.Keyboard{})
		return err
	}
	if !private {
		s.reply(ctx, actor.ID, msgs.PrivateOnly, messenger.Keyboard{})
		return nil
	}
	s.reply(ctx, actor.ID, msgs.AdminPanel, s.menu())
	return nil
}

// Back clears any pending admin flow and shows the main menu.
func (s *Service) Back(ctx context.Context, actor role.Actor) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	s.deps.Sessions.Delete(actor.ID)
	s.reply(ctx, actor.ID, s.deps.Config.Messages.MainMenu, s.menu())
	return nil
}

// Cancel aborts a pending text-input flow.
func (s *Service) Cancel(ctx context.Context, actor role.Actor) {
	s.deps.Sessions.Delete(actor.ID)
	s.reply(ctx, actor.ID, s.deps.Config.Messages.ActionCancelled, s.menu())
}

// require checks the actor's role and tells them when it is not enough.
func (s *Service) require(ctx context.Context, actor role.Actor, minRole role.Role) error {
	err := actor.Require(minRole)
	if err == nil {
		return nil
	}
	text := s.deps.Config.Messages.NotAdmin
	if actor.Role.IsAdmin() {
		text = s.deps.Config.Messages.InsufficientRights
	}
	s.log.WarnContext(ctx, "Admin action refused", "user_id", actor.ID, "role", actor.Role.String(), "required", minRole.String())
	s.reply(ctx, actor.ID, text, messenger.Keyboard{})
	return err
}

func (s *Service) menu() messenger.Keyboard {
	return intent.AdminMenu(s.deps.Config.Labels)
}

func (s *Service) reply(ctx context.Context, to int64, text string, kb messenger.Keyboard) {
	s.send(ctx, messenger.Message{To: to, Text: text, Keyboard: kb})
}

func (s *Service) send(ctx context.Context, msg messenger.Message) (messenger.Sent, bool) {
	sent, err := s.deps.Messenger.Send(ctx, msg)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to send reply", "user_id", msg.To, "error", err)
		return sent, false
	}
	return sent, true
}
