package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/user/wabot/internal/logging"
	"github.com/user/wabot/internal/metrics"
	"github.com/user/wabot/internal/whatsapp"
)

// SendResult reports the outcome of one outbound message.
type SendResult struct {
	To  string
	Err error
}

// OK reports whether the message was handed to the client successfully.
func (r SendResult) OK() bool { return r.Err == nil }

// Outbox is the only path for outbound text. Every send is followed by a fixed
// delay, and failures are logged and returned, never raised.
type Outbox struct {
	client whatsapp.Client
	delay  time.Duration
	log    zerolog.Logger
}

// NewOutbox creates an Outbox that pauses delay after each send.
func NewOutbox(client whatsapp.Client, delay time.Duration, log zerolog.Logger) *Outbox {
	return &Outbox{client: client, delay: delay, log: log}
}

// Send delivers body to the chat and then waits the courtesy delay, even when
// the send failed. The wait ends early if ctx is cancelled.
func (o *Outbox) Send(ctx context.Context, to, body string) SendResult {
	res := SendResult{To: to, Err: o.client.SendText(ctx, to, body)}
	metrics.IncSend(res.OK())
	if res.Err != nil {
		o.log.Error().Err(res.Err).Str("to", logging.Redact(to)).Msg("message send failed")
	} else {
		o.log.Debug().Str("to", logging.Redact(to)).Int("len", len(body)).Msg("message sent")
	}

	if o.delay > 0 {
		t := time.NewTimer(o.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return res
}
