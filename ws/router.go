package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"

	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/relay"
)

// Router dispatches inbound envelopes to the relay core. message:send is
// acknowledged; typing and read events are best effort: their failures
// are logged and swallowed, never surfaced to the caller.
type Router struct {
	log   *slog.Logger
	relay *relay.Relay
}

func NewRouter(log *slog.Logger, r *relay.Relay) *Router {
	return &Router{log: log, relay: r}
}

func (rt *Router) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		rt.log.Warn("malformed envelope dropped", "user_id", c.identity.ID, "error", err)
		return
	}

	switch env.Event {
	case "message:send":
		rt.handleSend(ctx, c, env.Data)
	case "typing:start":
		rt.handleTyping(ctx, c, env.Data, true)
	case "typing:stop":
		rt.handleTyping(ctx, c, env.Data, false)
	case "message:read":
		rt.handleRead(ctx, c, env.Data)
	default:
		rt.log.Warn("unknown event dropped", "event", env.Event, "user_id", c.identity.ID)
	}
}

func (rt *Router) handleSend(ctx context.Context, c *Client, data json.RawMessage) {
	var cmd relay.SendMessageCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		rt.ack(c, SendAck{Status: ackStatusError, Message: reason(errors.ErrInvalidPayload)})
		return
	}

	message, err := rt.relay.SendMessage(ctx, c.identity, cmd)
	if err != nil {
		rt.log.Warn("message:send rejected", "user_id", c.identity.ID, "error", err)
		rt.ack(c, SendAck{Status: ackStatusError, Message: reason(err)})
		return
	}
	rt.ack(c, SendAck{Status: ackStatusOK, Message: event.FromMessage(message)})
}

func (rt *Router) handleTyping(ctx context.Context, c *Client, data json.RawMessage, started bool) {
	var cmd relay.TypingCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		rt.log.Warn("typing event dropped", "user_id", c.identity.ID, "error", err)
		return
	}

	var err error
	if started {
		err = rt.relay.StartTyping(ctx, c.identity.ID, cmd)
	} else {
		err = rt.relay.StopTyping(ctx, c.identity.ID, cmd)
	}
	if err != nil {
		rt.log.Warn("typing event dropped", "user_id", c.identity.ID, "error", err)
	}
}

func (rt *Router) handleRead(ctx context.Context, c *Client, data json.RawMessage) {
	var cmd relay.ReadCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		rt.log.Warn("read receipt dropped", "user_id", c.identity.ID, "error", err)
		return
	}
	if err := rt.relay.MarkRead(ctx, c.identity.ID, cmd); err != nil {
		rt.log.Warn("read receipt dropped", "user_id", c.identity.ID, "error", err)
	}
}

func (rt *Router) ack(c *Client, ack SendAck) {
	frame, err := json.Marshal(Outbound{Event: "message:send", Data: ack})
	if err != nil {
		rt.log.Error("ack marshal failed", "error", err)
		return
	}
	c.reply(frame)
}

// reason maps a taxonomy error onto the ack wording the clients expect.
// NotFound and AccessDenied stay distinguishable on purpose.
func reason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrInvalidPayload):
		return "Invalid data"
	case stderrors.Is(err, errors.ErrConversationNotFound):
		return "Conversation not found"
	case stderrors.Is(err, errors.ErrAccessDenied):
		return "Access denied"
	default:
		return "Server error"
	}
}
