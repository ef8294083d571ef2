// Package bot routes incoming WhatsApp events to link capture, chat commands
// and trigger-word auto-replies.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/user/wabot/bot/activity"
	"github.com/user/wabot/bot/links"
	"github.com/user/wabot/bot/numbers"
	"github.com/user/wabot/bot/pending"
	"github.com/user/wabot/internal/logging"
	"github.com/user/wabot/internal/metrics"
	"github.com/user/wabot/internal/whatsapp"
)

// queueWarnDepth is the backlog size at which Run starts warning.
const queueWarnDepth = 256

// Bot owns the per-process state and the command table.
type Bot struct {
	cfg      Config
	triggers []string
	client   whatsapp.Client
	outbox   *Outbox
	links    *links.Set
	numbers  *numbers.Store
	pending  *pending.Store
	activity *activity.Store
	routes   map[string]commandHandler
	log      zerolog.Logger
}

// New creates a bot on top of a WhatsApp client.
func New(client whatsapp.Client, cfg Config, log zerolog.Logger) *Bot {
	triggers := make([]string, 0, len(cfg.TriggerWords))
	for _, w := range cfg.TriggerWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			triggers = append(triggers, w)
		}
	}

	b := &Bot{
		cfg:      cfg,
		triggers: triggers,
		client:   client,
		outbox:   NewOutbox(client, cfg.SendDelay, log),
		links:    links.NewSet(),
		numbers:  numbers.NewStore(cfg.DataDir),
		pending:  pending.NewStore(cfg.PromptTTL),
		log:      log,
	}
	b.routes = b.commandRoutes()
	return b
}

// SetActivity enables recording of executed commands.
func (b *Bot) SetActivity(s *activity.Store) { b.activity = s }

// Links exposes the captured invite links.
func (b *Bot) Links() *links.Set { return b.links }

// Numbers exposes the extracted numbers store.
func (b *Bot) Numbers() *numbers.Store { return b.numbers }

// Run subscribes to the client and handles events one at a time until ctx is
// cancelled. Events are queued so the client's goroutines never touch bot state
// and never wait on a slow handler.
func (b *Bot) Run(ctx context.Context) error {
	queue := newEventQueue()
	b.client.Listen(func(ev whatsapp.ChatEvent) {
		depth := queue.push(ev)
		metrics.SetQueueDepth(depth)
		if depth > 0 && depth%queueWarnDepth == 0 {
			b.log.Warn().Int("depth", depth).Msg("event backlog growing")
		}
	})
	go func() {
		<-ctx.Done()
		queue.close()
	}()

	b.log.Info().
		Str("command_group", b.cfg.CommandGroup).
		Str("owner", logging.Redact(b.cfg.Owner)).
		Strs("triggers", b.triggers).
		Dur("send_delay", b.cfg.SendDelay).
		Msg("bot running")

	for {
		ev, depth, ok := queue.pop()
		if !ok {
			metrics.SetQueueDepth(0)
			b.log.Info().Msg("bot stopped")
			return nil
		}
		metrics.SetQueueDepth(depth)
		if err := b.Handle(ctx, ev); err != nil {
			b.log.Warn().Err(err).Str("from", logging.Redact(ev.From)).Msg("event handled with errors")
		}
	}
}

// requester identifies who sent an event: the group member, or the chat itself
// for private messages.
func requester(ev whatsapp.ChatEvent) string {
	if ev.Author != "" {
		return ev.Author
	}
	return ev.From
}
