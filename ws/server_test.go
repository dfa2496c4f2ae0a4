package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/relay"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type memConversations struct {
	mu    sync.Mutex
	items map[string]domain.Conversation
}

func (m *memConversations) Create(c domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = c
	return nil
}

func (m *memConversations) FindByID(id string) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	return c, nil
}

func (m *memConversations) FindBilateral(userA, userB string) (domain.Conversation, error) {
	return domain.Conversation{}, errors.ErrConversationNotFound
}

func (m *memConversations) ListForUser(userID string) ([]domain.Conversation, error) {
	return nil, nil
}

type memMessages struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Message
}

func (m *memMessages) Save(message domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[message.ID] = message
	return nil
}

func (m *memMessages) FindByID(id uuid.UUID) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.items[id]
	if !ok {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	return message, nil
}

func (m *memMessages) ListByConversation(conversationID string) ([]domain.Message, error) {
	return nil, nil
}

type harness struct {
	ts     *httptest.Server
	tokens *auth.TokenManager
	alice  domain.User
	bob    domain.User
	conv   domain.Conversation
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	alice := domain.User{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com"}
	bob := domain.User{ID: uuid.NewString(), Username: "bob", Email: "bob@example.com"}
	conv := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: []string{alice.ID, bob.ID},
		CreatedAt:    time.Now().UTC(),
	}

	conversations := &memConversations{items: map[string]domain.Conversation{conv.ID: conv}}
	messages := &memMessages{items: map[uuid.UUID]domain.Message{}}
	registry := relay.NewRegistry()
	core := relay.NewRelay(log, conversations, messages, registry, nil)
	server := NewServer(log, tokens, registry, NewRouter(log, core), 16)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		server.Close()
		ts.Close()
	})
	return &harness{ts: ts, tokens: tokens, alice: alice, bob: bob, conv: conv}
}

func (h *harness) dial(t *testing.T, user domain.User) *websocket.Conn {
	t.Helper()
	token, err := h.tokens.Generate(user)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventName string, data any) {
	t.Helper()
	frame, err := json.Marshal(Outbound{Event: eventName, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func receive(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame.Event, frame.Data
}

func TestServer_Rejects_Handshake_Without_Token(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	url := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Rejects_Handshake_With_Forged_Token(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	url := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/?token=forged.token.here"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Message_Roundtrip(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	aliceConn := h.dial(t, h.alice)
	bobConn := h.dial(t, h.bob)

	// When Alice sends a message
	send(t, aliceConn, "message:send", relay.SendMessageCommand{
		ConversationID: h.conv.ID,
		Text:           "hello bob",
	})

	// Then Alice receives her self-echo followed by the ok ack
	eventName, data := receive(t, aliceConn)
	req.Equal("message:new", eventName)
	req.Equal("hello bob", data["text"])
	req.Equal(h.alice.ID, data["senderId"])

	eventName, data = receive(t, aliceConn)
	req.Equal("message:send", eventName)
	req.Equal("ok", data["status"])

	// And Bob receives the same message event
	eventName, data = receive(t, bobConn)
	req.Equal("message:new", eventName)
	req.Equal("hello bob", data["text"])
	req.Equal(h.conv.ID, data["conversationId"])
}

func TestServer_Send_To_Unknown_Conversation_Is_Nacked(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	aliceConn := h.dial(t, h.alice)

	send(t, aliceConn, "message:send", relay.SendMessageCommand{
		ConversationID: uuid.NewString(),
		Text:           "into the void",
	})

	eventName, data := receive(t, aliceConn)
	req.Equal("message:send", eventName)
	req.Equal("error", data["status"])
	req.Equal("Conversation not found", data["message"])
}

func TestServer_Typing_Reaches_The_Other_Participant(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	aliceConn := h.dial(t, h.alice)
	bobConn := h.dial(t, h.bob)

	send(t, aliceConn, "typing:start", relay.TypingCommand{ConversationID: h.conv.ID})
	send(t, aliceConn, "typing:stop", relay.TypingCommand{ConversationID: h.conv.ID})

	eventName, data := receive(t, bobConn)
	req.Equal("typing:start", eventName)
	req.Equal(h.alice.ID, data["userId"])

	eventName, _ = receive(t, bobConn)
	req.Equal("typing:stop", eventName)
}

func TestServer_Read_Receipt_Notifies_The_Sender(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	aliceConn := h.dial(t, h.alice)
	bobConn := h.dial(t, h.bob)

	// Given a delivered message
	send(t, aliceConn, "message:send", relay.SendMessageCommand{
		ConversationID: h.conv.ID,
		Text:           "read me",
	})
	receive(t, aliceConn) // self-echo
	receive(t, aliceConn) // ack
	eventName, data := receive(t, bobConn)
	req.Equal("message:new", eventName)
	messageID := data["id"].(string)

	// When Bob acknowledges reading it
	send(t, bobConn, "message:read", relay.ReadCommand{
		ConversationID: h.conv.ID,
		MessageID:      messageID,
	})

	// Then Alice is notified exactly once
	eventName, data = receive(t, aliceConn)
	req.Equal("message:read", eventName)
	req.Equal(messageID, data["messageId"])
	req.Equal(h.bob.ID, data["userId"])
}
