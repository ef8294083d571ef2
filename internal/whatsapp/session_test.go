package whatsapp

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

var (
	ownJID     = types.NewJID("923000000000", types.DefaultUserServer)
	ownDevice  = types.JID{User: "923000000000", Server: types.DefaultUserServer, Device: 7}
	peerJID    = types.NewJID("923440690209", types.DefaultUserServer)
	peerDevice = types.JID{User: "923440690209", Server: types.DefaultUserServer, Device: 3}
	groupJID   = types.NewJID("120363419580228015", types.GroupServer)
)

// newLoggedInClient returns a RealClient that believes it is paired as ownDevice
// and records every event it emits.
func newLoggedInClient(t *testing.T) (*RealClient, *[]ChatEvent) {
	t.Helper()
	id := ownDevice
	r := &RealClient{
		client: &whatsmeow.Client{Store: &store.Device{ID: &id}},
		log:    zerolog.Nop(),
	}
	var got []ChatEvent
	r.Listen(func(ev ChatEvent) { got = append(got, ev) })
	return r, &got
}

func textMessage(src types.MessageSource, body string) *events.Message {
	return &events.Message{
		Info:    types.MessageInfo{MessageSource: src, Timestamp: time.Unix(1700000000, 0)},
		Message: &waE2E.Message{Conversation: proto.String(body)},
	}
}

func TestHandleEventMapping(t *testing.T) {
	tests := []struct {
		name string
		msg  *events.Message
		want ChatEvent
	}{
		{
			name: "inbound group message",
			msg:  textMessage(types.MessageSource{Chat: groupJID, Sender: peerDevice, IsGroup: true}, "!help"),
			want: ChatEvent{
				From:    groupJID.String(),
				To:      ownJID.String(),
				Author:  peerJID.String(),
				Body:    "!help",
				IsGroup: true,
			},
		},
		{
			name: "own message in group",
			msg:  textMessage(types.MessageSource{Chat: groupJID, Sender: ownDevice, IsGroup: true, IsFromMe: true}, "!extract"),
			want: ChatEvent{
				From:    ownJID.String(),
				To:      groupJID.String(),
				Author:  ownJID.String(),
				Body:    "!extract",
				IsGroup: true,
				FromMe:  true,
			},
		},
		{
			name: "own message in private chat",
			msg:  textMessage(types.MessageSource{Chat: peerJID, Sender: ownDevice, IsFromMe: true}, "hello"),
			want: ChatEvent{
				From:   ownJID.String(),
				To:     peerJID.String(),
				Author: ownJID.String(),
				Body:   "hello",
				FromMe: true,
			},
		},
		{
			name: "inbound private extended text",
			msg: &events.Message{
				Info: types.MessageInfo{
					MessageSource: types.MessageSource{Chat: peerJID, Sender: peerDevice},
					Timestamp:     time.Unix(1700000000, 0),
				},
				Message: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
					Text: proto.String("need pin service https://example.com"),
				}},
			},
			want: ChatEvent{
				From:   peerJID.String(),
				To:     ownJID.String(),
				Author: peerJID.String(),
				Body:   "need pin service https://example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, got := newLoggedInClient(t)
			r.handleEvent(tt.msg)

			require.Len(t, *got, 1)
			ev := (*got)[0]
			assert.Equal(t, tt.want.From, ev.From)
			assert.Equal(t, tt.want.To, ev.To)
			assert.Equal(t, tt.want.Author, ev.Author)
			assert.Equal(t, tt.want.Body, ev.Body)
			assert.Equal(t, tt.want.IsGroup, ev.IsGroup)
			assert.Equal(t, tt.want.FromMe, ev.FromMe)
			assert.Equal(t, tt.msg.Info.Timestamp, ev.Timestamp)
		})
	}
}

func TestHandleEventOwnGroupMessageRepliesToGroup(t *testing.T) {
	r, got := newLoggedInClient(t)
	r.handleEvent(textMessage(types.MessageSource{Chat: groupJID, Sender: ownDevice, IsGroup: true, IsFromMe: true}, "!help"))

	require.Len(t, *got, 1)
	assert.Equal(t, groupJID.String(), (*got)[0].ReplyTarget())
}

func TestHandleEventDropsNonText(t *testing.T) {
	r, got := newLoggedInClient(t)

	r.handleEvent(&events.Message{
		Info: types.MessageInfo{MessageSource: types.MessageSource{Chat: peerJID, Sender: peerDevice}},
		Message: &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Mimetype: proto.String("image/jpeg"),
		}},
	})
	r.handleEvent(&events.Receipt{})

	assert.Empty(t, *got)
}

func TestBuildClearChat(t *testing.T) {
	before := time.Unix(1700000000, 0)
	patch := buildClearChat(groupJID, before)

	assert.Equal(t, appstate.WAPatchRegularHigh, patch.Type)
	require.Len(t, patch.Mutations, 1)
	m := patch.Mutations[0]
	require.Len(t, m.Index, 4)
	assert.Equal(t, "clearChat", m.Index[0])
	assert.Equal(t, groupJID.String(), m.Index[1])
	assert.Nil(t, m.Value.GetDeleteChatAction())

	action := m.Value.GetClearChatAction()
	require.NotNil(t, action)
	assert.Equal(t, before.Unix(), action.GetMessageRange().GetLastMessageTimestamp())
}
