package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/wabot/bot/activity"
	"github.com/user/wabot/internal/metrics"
	"github.com/user/wabot/internal/whatsapp"
)

const detailSendAllArmed = "prompt armed, awaiting message"

type commandHandler func(ctx context.Context, ev whatsapp.ChatEvent, args string) error

// commandRoutes defines all available chat commands and their handlers.
func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"help":        b.handleHelp,
		"extract":     b.handleExtract,
		"creategroup": b.handleCreateGroup,
		"sendall":     b.handleSendAll,
		"clearall":    b.handleClearAll,
		"showlinks":   b.handleShowLinks,
	}
}

// Dispatch runs the handler registered for cmd. Unknown names get a single
// reply and ErrUnknownCommand; handler errors are returned after the handler's
// own reply.
func (b *Bot) Dispatch(ctx context.Context, ev whatsapp.ChatEvent, cmd Command) error {
	name := strings.ToLower(cmd.Name)
	b.log.Info().Str("command", name).Str("args", cmd.Args).Msg("command received")

	h, ok := b.routes[name]
	if !ok {
		b.outbox.Send(ctx, ev.ReplyTarget(), msgUnknownCommand(cmd.Name))
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
		metrics.IncCommand("unknown", activity.OutcomeError)
		b.record(name, ev.ReplyTarget(), requester(ev), err, "")
		return err
	}

	err := h(ctx, ev, cmd.Args)
	if err != nil {
		b.log.Error().Err(err).Str("command", name).Msg("command failed")
		metrics.IncCommand(name, activity.OutcomeError)
	} else {
		metrics.IncCommand(name, activity.OutcomeOK)
	}

	detail := strings.TrimSpace(cmd.Args)
	if name == "sendall" {
		// The delivery itself is recorded by broadcast.
		detail = detailSendAllArmed
	}
	b.record(name, ev.ReplyTarget(), requester(ev), err, detail)
	return err
}

func (b *Bot) record(command, chatID, who string, err error, detail string) {
	if b.activity == nil {
		return
	}
	rec := activity.Record{
		Command:   command,
		ChatID:    chatID,
		Requester: who,
		Outcome:   activity.OutcomeOK,
		Detail:    detail,
	}
	if err != nil {
		rec.Outcome = activity.OutcomeError
		rec.Detail = err.Error()
	}
	if err := b.activity.Save(rec); err != nil {
		b.log.Warn().Err(err).Str("command", command).Msg("record activity")
	}
}
