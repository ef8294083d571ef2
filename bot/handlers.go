package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/wabot/bot/numbers"
	"github.com/user/wabot/bot/pending"
	"github.com/user/wabot/internal/logging"
	"github.com/user/wabot/internal/metrics"
	"github.com/user/wabot/internal/whatsapp"
)

func (b *Bot) handleHelp(ctx context.Context, ev whatsapp.ChatEvent, _ string) error {
	b.outbox.Send(ctx, ev.ReplyTarget(), HelpText)
	return nil
}

// handleExtract collects the members of every joined group into the numbers file.
// Groups whose member list cannot be fetched are skipped and counted.
func (b *Bot) handleExtract(ctx context.Context, ev whatsapp.ChatEvent, _ string) error {
	to := ev.ReplyTarget()

	groups, err := b.client.Groups(ctx)
	if err != nil {
		err = capErr("list groups", err)
		b.outbox.Send(ctx, to, msgFailed("extract numbers", err))
		return err
	}

	var ids []string
	failed := 0
	for _, g := range groups {
		members, err := b.client.GroupMembers(ctx, g.ID)
		if err != nil {
			failed++
			b.log.Warn().Err(err).Str("group", g.ID).Msg("list group members")
			continue
		}
		for _, m := range members {
			ids = append(ids, numbers.Normalize(m))
		}
	}

	n, err := b.numbers.Save(ids)
	if err != nil {
		b.outbox.Send(ctx, to, msgFailed("save numbers", err))
		return err
	}

	b.log.Info().Int("numbers", n).Int("groups", len(groups)).Int("failed_groups", failed).Msg("numbers extracted")
	b.outbox.Send(ctx, to, msgExtracted(n, failed))
	return nil
}

func (b *Bot) handleCreateGroup(ctx context.Context, ev whatsapp.ChatEvent, args string) error {
	to := ev.ReplyTarget()

	name := strings.TrimSpace(args)
	if name == "" {
		b.outbox.Send(ctx, to, msgCreateGroupUsage)
		return ErrMissingGroupName
	}

	ids, err := b.numbers.Load()
	switch {
	case errors.Is(err, numbers.ErrNotExtracted):
		b.outbox.Send(ctx, to, msgNoNumbers)
		return ErrNoNumbers
	case err != nil:
		b.outbox.Send(ctx, to, msgFailed("read numbers", err))
		return err
	case len(ids) == 0:
		b.outbox.Send(ctx, to, msgNoNumbers)
		return ErrNoNumbers
	}

	participants := make([]string, len(ids))
	for i, id := range ids {
		participants[i] = id + b.cfg.ContactSuffix
	}

	b.log.Info().Str("name", name).Int("participants", len(participants)).Msg("creating group")
	groupID, err := b.client.CreateGroup(ctx, name, participants)
	if err != nil {
		err = capErr("create group", err)
		b.outbox.Send(ctx, to, msgFailed("create group", err))
		return err
	}

	b.log.Info().Str("group", groupID).Msg("group created")
	b.outbox.Send(ctx, to, msgGroupCreated(name, len(participants)))
	return nil
}

// handleSendAll arms a broadcast for the requester; the requester's next
// non-command message in the command group becomes the broadcast body.
func (b *Bot) handleSendAll(ctx context.Context, ev whatsapp.ChatEvent, _ string) error {
	p := b.pending.Arm(requester(ev), ev.ReplyTarget())
	b.log.Info().Str("requester", logging.Redact(p.Requester)).Time("deadline", p.Deadline).Msg("awaiting broadcast body")
	b.outbox.Send(ctx, p.ReplyTo, msgSendAllPrompt)
	return nil
}

func (b *Bot) broadcast(ctx context.Context, p pending.Broadcast, body string) error {
	groups, err := b.client.Groups(ctx)
	if err != nil {
		err = capErr("list groups", err)
		b.outbox.Send(ctx, p.ReplyTo, msgFailed("send to groups", err))
		b.record("sendall", p.ReplyTo, p.Requester, err, "")
		return err
	}

	failed := 0
	for _, g := range groups {
		b.log.Debug().Str("group", g.ID).Msg("broadcasting to group")
		if res := b.outbox.Send(ctx, g.ID, body); !res.OK() {
			failed++
		}
	}
	metrics.AddBroadcast(len(groups)-failed, failed)

	b.outbox.Send(ctx, p.ReplyTo, msgBroadcastDone(len(groups), failed))
	b.record("sendall", p.ReplyTo, p.Requester, nil, fmt.Sprintf("broadcast to %d groups, %d failed", len(groups), failed))
	return nil
}

func (b *Bot) handleClearAll(ctx context.Context, ev whatsapp.ChatEvent, _ string) error {
	to := ev.ReplyTarget()

	groups, err := b.client.Groups(ctx)
	if err != nil {
		err = capErr("list groups", err)
		b.outbox.Send(ctx, to, msgFailed("clear chats", err))
		return err
	}

	failed := 0
	for _, g := range groups {
		if err := b.client.ClearChat(ctx, g.ID); err != nil {
			failed++
			b.log.Warn().Err(err).Str("group", g.ID).Msg("clear chat")
		}
	}

	b.outbox.Send(ctx, to, msgCleared(len(groups), failed))
	return nil
}

func (b *Bot) handleShowLinks(ctx context.Context, ev whatsapp.ChatEvent, _ string) error {
	b.outbox.Send(ctx, ev.ReplyTarget(), msgLinksHeader+strings.Join(b.links.List(), "\n"))
	return nil
}
