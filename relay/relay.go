// Package relay is the real-time core: it validates conversation-scoped
// events from authenticated sessions, persists what must be persisted,
// and fans resulting events out to whichever participants are live.
package relay

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxTextLength = 1000

var validate = validator.New()

// TextFilter rewrites message text before persistence. Moderation plugs
// in here; nil disables the step.
type TextFilter interface {
	Censor(text string) string
}

// SendMessageCommand, TypingCommand and ReadCommand are the validated
// shapes of the three inbound event payloads. Validation runs before any
// side effect.
type SendMessageCommand struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Text           string `json:"text" validate:"required"`
}

type TypingCommand struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type ReadCommand struct {
	ConversationID string `json:"conversationId" validate:"required"`
	MessageID      string `json:"messageId" validate:"required,uuid"`
}

type Relay struct {
	log           *slog.Logger
	conversations contract.ConversationStore
	messages      contract.MessageStore
	registry      contract.SessionRegistry
	filter        TextFilter
	now           func() time.Time
}

func NewRelay(log *slog.Logger, conversations contract.ConversationStore,
	messages contract.MessageStore, registry contract.SessionRegistry,
	filter TextFilter) *Relay {
	return &Relay{
		log:           log,
		conversations: conversations,
		messages:      messages,
		registry:      registry,
		filter:        filter,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage runs the full pipeline for an acknowledged message:send
// event: Validated, Authorized, Persisted, Routed. On success the caller
// receives the canonical persisted message for its ack; every error maps
// to exactly one taxonomy sentinel.
func (r *Relay) SendMessage(ctx context.Context, sender domain.Identity, cmd SendMessageCommand) (domain.Message, error) {
	if err := validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	text := strings.TrimSpace(cmd.Text)
	if length := utf8.RuneCountInString(text); length == 0 || length > maxTextLength {
		return domain.Message{}, fmt.Errorf("%w: text length out of range", errors.ErrInvalidPayload)
	}

	conversation, err := r.authorize(cmd.ConversationID, sender.ID)
	if err != nil {
		return domain.Message{}, err
	}

	if r.filter != nil {
		text = r.filter.Censor(text)
	}

	message := domain.NewMessage(conversation.ID, sender.ID, text, r.now())
	if err := r.messages.Save(message); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrServer, err)
	}

	// Self-echo first so the sender's UI reflects the canonical record,
	// then fan out to every other live participant. Offline participants
	// are silently skipped; history covers them.
	payload := event.NewMessage{MessagePayload: event.FromMessage(message)}
	r.deliver(ctx, sender.ID, payload)
	for _, participant := range conversation.Others(sender.ID) {
		r.deliver(ctx, participant, payload)
	}

	return message, nil
}

// StartTyping and StopTyping relay ephemeral presence to live
// participants. They return errors for the caller to log and drop; no
// acknowledgment channel exists for these events.
func (r *Relay) StartTyping(ctx context.Context, userID string, cmd TypingCommand) error {
	return r.typing(ctx, userID, cmd, true)
}

func (r *Relay) StopTyping(ctx context.Context, userID string, cmd TypingCommand) error {
	return r.typing(ctx, userID, cmd, false)
}

func (r *Relay) typing(ctx context.Context, userID string, cmd TypingCommand, started bool) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	conversation, err := r.authorize(cmd.ConversationID, userID)
	if err != nil {
		return err
	}

	var payload event.DomainEvent
	if started {
		payload = event.TypingStarted{ConversationID: conversation.ID, UserID: userID}
	} else {
		payload = event.TypingStopped{ConversationID: conversation.ID, UserID: userID}
	}
	for _, participant := range conversation.Others(userID) {
		r.deliver(ctx, participant, payload)
	}
	return nil
}

// MarkRead records that userID has seen a message. The readBy union is
// idempotent: only the first transition persists and notifies, anything
// after is a complete no-op. The acting user comes from the live
// session, never from the payload.
func (r *Relay) MarkRead(ctx context.Context, userID string, cmd ReadCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	conversation, err := r.authorize(cmd.ConversationID, userID)
	if err != nil {
		return err
	}

	messageID, err := uuid.Parse(cmd.MessageID)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	message, err := r.messages.FindByID(messageID)
	if err != nil {
		return err
	}

	if !message.MarkRead(userID) {
		return nil
	}
	if err := r.messages.Save(message); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrServer, err)
	}

	payload := event.MessageRead{
		ConversationID: conversation.ID,
		MessageID:      message.ID,
		UserID:         userID,
	}
	for _, participant := range conversation.Others(userID) {
		r.deliver(ctx, participant, payload)
	}
	return nil
}

// authorize re-validates membership for every conversation-scoped event.
// Absence and denial stay distinct; callers decide what to surface.
func (r *Relay) authorize(conversationID, userID string) (domain.Conversation, error) {
	conversation, err := r.conversations.FindByID(conversationID)
	if stderrors.Is(err, errors.ErrConversationNotFound) {
		return domain.Conversation{}, err
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("%w: %v", errors.ErrServer, err)
	}
	if !conversation.HasParticipant(userID) {
		return domain.Conversation{}, errors.ErrAccessDenied
	}
	return conversation, nil
}

// deliver routes one event to one user, fire and forget. If the registry
// resolves no live session, or the sink refuses the event because the
// connection is going away, the event is dropped, not buffered.
func (r *Relay) deliver(ctx context.Context, userID string, e event.DomainEvent) {
	sink, ok := r.registry.Resolve(userID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		r.log.Debug("event dropped on delivery",
			"event", e.EventName(), "user_id", userID, "error", err)
	}
}
