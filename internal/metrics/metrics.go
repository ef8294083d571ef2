package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabot_messages_sent_total",
			Help: "Outbound messages by result (ok|failed).",
		},
		[]string{"result"},
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabot_commands_total",
			Help: "Dispatched commands by name and outcome.",
		},
		[]string{"command", "outcome"},
	)

	linksCaptured = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wabot_links_captured_total",
			Help: "Distinct invite links added to the link set.",
		},
	)

	triggerReplies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wabot_trigger_replies_total",
			Help: "Service messages sent in reply to trigger words.",
		},
	)

	broadcastGroups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wabot_broadcast_groups_total",
			Help: "Per-group broadcast deliveries by result (ok|failed).",
		},
		[]string{"result"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wabot_event_queue_depth",
			Help: "Incoming events waiting to be handled.",
		},
	)
)

// MustRegister registers all collectors with the default registry exactly once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(messagesSent, commands, linksCaptured, triggerReplies, broadcastGroups, queueDepth)
	})
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// IncSend counts one outbound message.
func IncSend(ok bool) { messagesSent.WithLabelValues(result(ok)).Inc() }

// IncCommand counts one dispatched command. Callers pass "unknown" for
// unrecognized names so label cardinality stays bounded.
func IncCommand(command, outcome string) { commands.WithLabelValues(command, outcome).Inc() }

// IncLinkCaptured counts a newly captured invite link.
func IncLinkCaptured() { linksCaptured.Inc() }

// IncTriggerReply counts an auto-reply to a trigger word.
func IncTriggerReply() { triggerReplies.Inc() }

// AddBroadcast counts the outcome of one broadcast run.
func AddBroadcast(sent, failed int) {
	broadcastGroups.WithLabelValues("ok").Add(float64(sent))
	broadcastGroups.WithLabelValues("failed").Add(float64(failed))
}

// SetQueueDepth reports the current incoming event backlog.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }
