package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waSyncAction"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	sqlite "modernc.org/sqlite"
)

func init() {
	// whatsmeow's sqlstore calls sql.Open("sqlite3", ...) internally.
	// Register modernc.org/sqlite (no CGO) under that name if not yet registered.
	for _, d := range sql.Drivers() {
		if d == "sqlite3" {
			return
		}
	}
	sql.Register("sqlite3", &sqlite.Driver{})
}

// ErrNotConnected is returned by RealClient operations before Connect succeeds.
var ErrNotConnected = errors.New("whatsapp: not connected")

// RealClient implements Client using whatsmeow (real WhatsApp Web).
type RealClient struct {
	client *whatsmeow.Client
	log    zerolog.Logger

	mu       sync.RWMutex
	handlers []func(ev ChatEvent)
}

// NewRealClient opens the session store and prepares a whatsmeow client.
// dbPath is the SQLite file for session persistence (e.g. "bot_data/whatsapp.db").
// Call Connect to log in.
func NewRealClient(ctx context.Context, dbPath string, logger zerolog.Logger) (*RealClient, error) {
	waLogger := waLog.Zerolog(logger.With().Str("module", "whatsmeow").Logger())

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	container, err := sqlstore.New(ctx, "sqlite3", dsn, waLogger.Sub("store"))
	if err != nil {
		return nil, fmt.Errorf("whatsapp store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	r := &RealClient{log: logger}
	r.client = whatsmeow.NewClient(deviceStore, waLogger.Sub("client"))

	// Register handler for incoming messages BEFORE connecting
	r.client.AddEventHandler(r.handleEvent)
	return r, nil
}

// Connect logs in to WhatsApp.
// On first run it shows a QR code; subsequent runs reuse the saved session.
func (r *RealClient) Connect(ctx context.Context) error {
	if r.client.Store.ID != nil {
		if err := r.client.Connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		r.log.Info().Str("jid", r.client.Store.ID.User).Msg("whatsapp connected")
		return nil
	}

	// First run: pair via QR code
	qrChan, err := r.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := r.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	fmt.Println("\n=== WhatsApp — first connection ===")
	fmt.Println("Open WhatsApp > Linked devices > Link a device")
	fmt.Println("Scan the QR code below:")
	fmt.Println()

	for item := range qrChan {
		switch item.Event {
		case "code":
			qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, os.Stdout)
			fmt.Printf("(expires in %.0fs)\n", item.Timeout.Seconds())
		default:
			if item == whatsmeow.QRChannelSuccess {
				r.log.Info().Msg("whatsapp paired")
			} else if item == whatsmeow.QRChannelTimeout {
				return fmt.Errorf("timed out waiting for QR scan")
			} else if item.Error != nil {
				return fmt.Errorf("pairing: %w", item.Error)
			}
		}
	}
	return nil
}

// Close disconnects from WhatsApp.
func (r *RealClient) Close() error {
	r.client.Disconnect()
	return nil
}

// Listen registers a handler called for every incoming text message.
func (r *RealClient) Listen(handler func(ev ChatEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
}

// SendText sends a text message. to is either a full JID ("123@g.us") or a bare
// phone number in international format.
func (r *RealClient) SendText(ctx context.Context, to, body string) error {
	if !r.client.IsConnected() {
		return ErrNotConnected
	}
	jid, err := parseTarget(to)
	if err != nil {
		return err
	}

	_, err = r.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(body),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", jid, err)
	}
	return nil
}

// Groups lists every group the account has joined.
func (r *RealClient) Groups(ctx context.Context) ([]Group, error) {
	if !r.client.IsConnected() {
		return nil, ErrNotConnected
	}
	joined, err := r.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("get joined groups: %w", err)
	}
	groups := make([]Group, 0, len(joined))
	for _, g := range joined {
		groups = append(groups, Group{ID: g.JID.String(), Name: g.Name})
	}
	return groups, nil
}

// GroupMembers returns the JIDs of a group's participants, preferring the
// phone-number JID when the group is LID-addressed.
func (r *RealClient) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	if !r.client.IsConnected() {
		return nil, ErrNotConnected
	}
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return nil, fmt.Errorf("invalid group JID %q: %w", groupID, err)
	}
	info, err := r.client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get group info %s: %w", groupID, err)
	}
	members := make([]string, 0, len(info.Participants))
	for _, p := range info.Participants {
		if !p.PhoneNumber.IsEmpty() {
			members = append(members, p.PhoneNumber.String())
			continue
		}
		members = append(members, p.JID.String())
	}
	return members, nil
}

// CreateGroup creates a group and returns its JID.
func (r *RealClient) CreateGroup(ctx context.Context, name string, participants []string) (string, error) {
	if !r.client.IsConnected() {
		return "", ErrNotConnected
	}
	jids := make([]types.JID, 0, len(participants))
	for _, p := range participants {
		jid, err := parseTarget(p)
		if err != nil {
			return "", err
		}
		jids = append(jids, jid)
	}

	info, err := r.client.CreateGroup(ctx, whatsmeow.ReqCreateGroup{
		Name:         name,
		Participants: jids,
	})
	if err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}
	return info.JID.String(), nil
}

// ClearChat empties the chat history on all linked devices. The chat itself
// and group membership are kept.
func (r *RealClient) ClearChat(ctx context.Context, chatID string) error {
	if !r.client.IsConnected() {
		return ErrNotConnected
	}
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat JID %q: %w", chatID, err)
	}
	if err := r.client.SendAppState(ctx, buildClearChat(jid, time.Now())); err != nil {
		return fmt.Errorf("clear chat %s: %w", chatID, err)
	}
	return nil
}

// buildClearChat builds the clearChat app state mutation for every message up
// to before. Index layout: clearChat, chat, deleteStarred, deleteMedia.
// Starred messages are deleted too; media files are kept.
func buildClearChat(target types.JID, before time.Time) appstate.PatchInfo {
	return appstate.PatchInfo{
		Type: appstate.WAPatchRegularHigh,
		Mutations: []appstate.MutationInfo{{
			Index:   []string{appstate.IndexClearChat, target.String(), "1", "0"},
			Version: 6,
			Value: &waSyncAction.SyncActionValue{
				ClearChatAction: &waSyncAction.ClearChatAction{
					MessageRange: &waSyncAction.SyncActionMessageRange{
						LastMessageTimestamp: proto.Int64(before.Unix()),
					},
				},
			},
		}},
	}
}

func (r *RealClient) handleEvent(evt any) {
	msg, ok := evt.(*events.Message)
	if !ok {
		return
	}

	// Plain and extended text messages carry the body in different fields.
	text := msg.Message.GetConversation()
	if text == "" && msg.Message.GetExtendedTextMessage() != nil {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return
	}

	ev := ChatEvent{
		From:      msg.Info.Chat.String(),
		Author:    msg.Info.Sender.ToNonAD().String(),
		Body:      text,
		IsGroup:   msg.Info.IsGroup,
		FromMe:    msg.Info.IsFromMe,
		Timestamp: msg.Info.Timestamp,
	}
	if own := r.client.Store.ID; own != nil {
		ev.To = own.ToNonAD().String()
		if msg.Info.IsFromMe {
			ev.From, ev.To = ev.To, msg.Info.Chat.String()
		}
	}

	r.mu.RLock()
	handlers := append([]func(ChatEvent){}, r.handlers...)
	r.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// parseTarget accepts a full JID or a bare phone number.
func parseTarget(s string) (types.JID, error) {
	if strings.Contains(s, "@") {
		jid, err := types.ParseJID(s)
		if err != nil {
			return types.EmptyJID, fmt.Errorf("invalid JID %q: %w", s, err)
		}
		return jid, nil
	}
	phone := normalizePhone(s)
	if phone == "" {
		return types.EmptyJID, fmt.Errorf("invalid phone %q", s)
	}
	return types.NewJID(phone, types.DefaultUserServer), nil
}

// normalizePhone strips non-digit characters and removes leading "+".
func normalizePhone(phone string) string {
	phone = strings.TrimPrefix(phone, "+")
	var out strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}
