package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/user/wabot/internal/logging"
	"github.com/user/wabot/internal/metrics"
	"github.com/user/wabot/internal/whatsapp"
)

// Handle applies every routing rule to one event: invite-link capture, command
// handling in the command group, and the trigger-word auto-reply. The rules are
// independent and all of them run for every event.
func (b *Bot) Handle(ctx context.Context, ev whatsapp.ChatEvent) error {
	b.log.Debug().
		Str("from", logging.Redact(ev.From)).
		Str("to", logging.Redact(ev.To)).
		Str("author", logging.Redact(ev.Author)).
		Int("len", len(ev.Body)).
		Bool("group", ev.IsGroup).
		Msg("incoming message")

	var errs []error

	b.captureLink(ev)

	if b.inCommandGroup(ev) {
		if err := b.handleCommandGroup(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}

	b.autoReply(ctx, ev)

	return errors.Join(errs...)
}

func (b *Bot) captureLink(ev whatsapp.ChatEvent) {
	if !strings.Contains(ev.Body, InviteLinkMarker) {
		return
	}
	link := strings.TrimSpace(ev.Body)
	if b.links.Add(link) {
		metrics.IncLinkCaptured()
		b.log.Info().Str("link", link).Msg("group link saved")
	}
}

func (b *Bot) inCommandGroup(ev whatsapp.ChatEvent) bool {
	return ev.From == b.cfg.CommandGroup || ev.To == b.cfg.CommandGroup
}

// handleCommandGroup dispatches prefixed bodies. Any other body completes a
// pending !sendall from the same requester, if one is armed.
func (b *Bot) handleCommandGroup(ctx context.Context, ev whatsapp.ChatEvent) error {
	if cmd, ok := ParseCommand(b.cfg.Prefix, ev.Body); ok {
		return b.Dispatch(ctx, ev, cmd)
	}
	if strings.TrimSpace(ev.Body) == "" {
		return nil
	}
	p, ok := b.pending.Take(requester(ev))
	if !ok {
		return nil
	}
	return b.broadcast(ctx, p, ev.Body)
}

func (b *Bot) autoReply(ctx context.Context, ev whatsapp.ChatEvent) {
	if ev.IsGroup || ev.FromMe || !b.matchesTrigger(ev.Body) {
		return
	}
	b.log.Info().Str("from", logging.Redact(ev.From)).Msg("trigger word detected in private chat")
	b.outbox.Send(ctx, ev.From, ServiceMessage)
	metrics.IncTriggerReply()
}

func (b *Bot) matchesTrigger(body string) bool {
	body = strings.ToLower(body)
	for _, w := range b.triggers {
		if strings.Contains(body, w) {
			return true
		}
	}
	return false
}
