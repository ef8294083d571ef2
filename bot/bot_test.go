package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/wabot/bot/activity"
	"github.com/user/wabot/internal/db"
	"github.com/user/wabot/internal/whatsapp"
)

const (
	testGroup = "120363419580228015@g.us"
	testOwner = "923440690209@s.whatsapp.net"
	testSelf  = "923000000000@s.whatsapp.net"
)

func newTestBot(t *testing.T, opts ...func(*Config)) (*Bot, *whatsapp.MockClient) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CommandGroup = testGroup
	cfg.Owner = testOwner
	cfg.SendDelay = 0
	cfg.DataDir = t.TempDir()
	for _, o := range opts {
		o(&cfg)
	}
	mock := whatsapp.NewMockClient()
	return New(mock, cfg, zerolog.Nop()), mock
}

// groupEvent is a message posted by author in the command group.
func groupEvent(author, body string) whatsapp.ChatEvent {
	return whatsapp.ChatEvent{From: testGroup, To: testSelf, Author: author, Body: body, IsGroup: true}
}

func TestRunHandlesQueuedEvents(t *testing.T) {
	b, mock := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return mock.Listeners() == 1 }, time.Second, 5*time.Millisecond)
	mock.SimulateEvent(groupEvent(testOwner, "!help"))
	mock.SimulateEvent(whatsapp.ChatEvent{From: "x@s.whatsapp.net", Body: "https://chat.whatsapp.com/abc"})

	require.Eventually(t, func() bool {
		return len(mock.SentTo(testGroup)) == 1 && b.Links().Len() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunDoesNotBlockTransportDuringBroadcast(t *testing.T) {
	b, mock := newTestBot(t, func(c *Config) { c.SendDelay = 50 * time.Millisecond })
	for i := 0; i < 40; i++ {
		mock.GroupList = append(mock.GroupList, whatsapp.Group{ID: fmt.Sprintf("g%d@g.us", i)})
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return mock.Listeners() == 1 }, time.Second, 5*time.Millisecond)
	mock.SimulateEvent(groupEvent(testOwner, "!sendall"))
	mock.SimulateEvent(groupEvent(testOwner, "Hello all groups"))
	require.Eventually(t, func() bool { return len(mock.SentTo("g0@g.us")) == 1 }, 2*time.Second, 5*time.Millisecond)

	// The broadcast now holds the consumer for about two seconds.
	start := time.Now()
	for i := 0; i < 200; i++ {
		mock.SimulateEvent(whatsapp.ChatEvent{From: "chatter@g.us", Author: "777@s.whatsapp.net", Body: "hi", IsGroup: true})
	}
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Empty(t, mock.SentTo("g39@g.us"), "broadcast should still be running")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDispatchRecordsActivity(t *testing.T) {
	b, _ := newTestBot(t)
	database, err := db.Open(filepath.Join(t.TempDir(), "wabot.db"))
	require.NoError(t, err)
	defer database.Close()
	store := activity.NewStore(database)
	b.SetActivity(store)

	ctx := context.Background()
	require.NoError(t, b.Handle(ctx, groupEvent(testOwner, "!help")))
	require.Error(t, b.Handle(ctx, groupEvent(testOwner, "!nope")))
	require.Error(t, b.Handle(ctx, groupEvent(testOwner, "!creategroup")))

	recs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	byCommand := map[string]activity.Record{}
	for _, r := range recs {
		byCommand[r.Command] = r
	}
	assert.Equal(t, activity.OutcomeOK, byCommand["help"].Outcome)
	assert.Equal(t, activity.OutcomeError, byCommand["nope"].Outcome)
	assert.Equal(t, testOwner, byCommand["creategroup"].Requester)
	assert.Contains(t, byCommand["creategroup"].Detail, "missing group name")
}

func TestSendAllRecordsArmAndDeliverySeparately(t *testing.T) {
	b, mock := newTestBot(t)
	mock.GroupList = []whatsapp.Group{{ID: "g1@g.us"}, {ID: "g2@g.us"}}
	database, err := db.Open(filepath.Join(t.TempDir(), "wabot.db"))
	require.NoError(t, err)
	defer database.Close()
	store := activity.NewStore(database)
	b.SetActivity(store)

	ctx := context.Background()
	require.NoError(t, b.Handle(ctx, groupEvent(testOwner, "!sendall")))
	require.NoError(t, b.Handle(ctx, groupEvent(testOwner, "Hello all groups")))

	recs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	details := []string{recs[0].Detail, recs[1].Detail}
	assert.ElementsMatch(t, []string{detailSendAllArmed, "broadcast to 2 groups, 0 failed"}, details)
	for _, r := range recs {
		assert.Equal(t, "sendall", r.Command)
		assert.Equal(t, activity.OutcomeOK, r.Outcome)
	}
}
