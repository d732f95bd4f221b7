package admin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/edgard/dymbot/internal/messenger"
	"github.com/edgard/dymbot/internal/role"
)

const timeLayout = "2006-01-02 15:04:05"

// Report sends customer and admin counts, the survey time range and the
// customer breakdown by gender, age group and visit frequency.
func (s *Service) Report(ctx context.Context, actor role.Actor) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	msgs := s.deps.Config.Messages

	header, groups, err := s.buildReport(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to build report", "admin_id", actor.ID, "error", err)
		s.reply(ctx, actor.ID, msgs.ReportError, messenger.Keyboard{})
		return err
	}
	s.sendChunks(ctx, actor.ID, header, groups, "")
	return nil
}

func (s *Service) buildReport(ctx context.Context) (string, []string, error) {
	msgs := s.deps.Config.Messages

	customers, err := s.deps.Store.CountCustomers(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to count customers: %w", err)
	}
	admins, err := s.deps.Store.CountAdmins(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to count admins: %w", err)
	}
	span, err := s.deps.Store.SurveyTimeRange(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get survey time range: %w", err)
	}
	counts, err := s.deps.Store.GroupCounts(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to group customers: %w", err)
	}

	header := fmt.Sprintf(msgs.ReportFmt, customers, admins, s.formatTime(span.First), s.formatTime(span.Last))
	groups := make([]string, 0, len(counts))
	for _, g := range counts {
		groups = append(groups, fmt.Sprintf(msgs.ReportGroupFmt,
			s.orUnknown(g.Gender), s.orUnknown(g.AgeGroup), s.orUnknown(g.VisitFreq), g.Count))
	}
	return header, groups, nil
}

// DetailedReport sends every field of the most recent customers, split into
// messages no longer than the configured chunk size.
func (s *Service) DetailedReport(ctx context.Context, actor role.Actor) error {
	if err := s.require(ctx, actor, role.Admin); err != nil {
		return err
	}
	msgs := s.deps.Config.Messages

	customers, err := s.deps.Store.ListRecentCustomers(ctx, s.deps.Config.Report.DetailedLimit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list customers for report", "admin_id", actor.ID, "error", err)
		s.reply(ctx, actor.ID, msgs.ReportError, messenger.Keyboard{})
		return fmt.Errorf("failed to list customers: %w", err)
	}
	if len(customers) == 0 {
		s.reply(ctx, actor.ID, msgs.NoCustomers, messenger.Keyboard{})
		return nil
	}

	entries := make([]string, 0, len(customers))
	for _, c := range customers {
		fullName := c.FullName
		if fullName == "" {
			fullName = msgs.NoName
		}
		entries = append(entries, fmt.Sprintf(msgs.DetailedEntryFmt,
			fullName, s.username(c.Username), c.UserID, s.formatTime(c.Timestamp),
			s.orUnknown(c.Gender), s.orUnknown(c.AgeGroup), s.orUnknown(c.VisitFreq),
			s.orUnknown(c.Appreciate), s.orUnknown(c.Dislike), s.orUnknown(c.Improve)))
	}
	s.sendChunks(ctx, actor.ID, fmt.Sprintf(msgs.DetailedHeaderFmt, len(customers)), entries, "\n")
	return nil
}

func (s *Service) sendChunks(ctx context.Context, to int64, header string, entries []string, sep string) {
	for _, text := range chunk(header, entries, sep, s.deps.Config.Report.ChunkSize) {
		s.reply(ctx, to, text, messenger.Keyboard{})
	}
}

// chunk packs header and entries, each followed by sep, into texts of at most
// limit runes. Entries are kept whole unless one alone exceeds limit.
func chunk(header string, entries []string, sep string, limit int) []string {
	var (
		chunks []string
		b      strings.Builder
		size   int
	)
	flush := func() {
		if text := strings.TrimRight(b.String(), "\n"); text != "" {
			chunks = append(chunks, text)
		}
		b.Reset()
		size = 0
	}
	push := func(s string) {
		for _, piece := range splitRunes(s, limit) {
			n := utf8.RuneCountInString(piece)
			if size > 0 && size+n > limit {
				flush()
			}
			b.WriteString(piece)
			size += n
		}
	}

	push(header)
	for _, e := range entries {
		push(e + sep)
	}
	flush()
	return chunks
}

func splitRunes(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	runes := []rune(s)
	var out []string
	for len(runes) > limit {
		out = append(out, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func (s *Service) formatTime(t sql.NullTime) string {
	if !t.Valid {
		return s.deps.Config.Messages.Unknown
	}
	return t.Time.Format(timeLayout)
}

func (s *Service) orUnknown(v string) string {
	if v == "" {
		return s.deps.Config.Messages.Unknown
	}
	return v
}
