package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	msgPrefix    = "msg:"
	msgRefPrefix = "msgref:"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type messageRecord struct {
	ID             string
	ConversationID string
	SenderID       string
	Text           string
	ReadBy         []string
	CreatedAt      int64
}

// Save persists a message in BadgerDB.
// The primary key is "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
//
// A "msgref:{uuid}" pointer to the primary key serves lookup by id. When
// the pointer already exists, Save rewrites the record in place, which is
// how readBy growth is persisted without disturbing history order.
func (m *MessageRepository) Save(message domain.Message) error {
	record := fromMessage(message)
	data, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}
	refKey := []byte(msgRefPrefix + message.ID.String())

	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(refKey)
		if err == nil {
			primaryKey, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			return txn.Set(primaryKey, data)
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		primaryKey := []byte(fmt.Sprintf("%s%s:%019d:%s",
			msgPrefix, message.ConversationID, message.CreatedAt.UnixNano(), message.ID))
		if err := txn.Set(primaryKey, data); err != nil {
			return err
		}
		return txn.Set(refKey, primaryKey)
	})
}

// FindByID resolves the pointer key and loads the record it names.
func (m *MessageRepository) FindByID(id uuid.UUID) (domain.Message, error) {
	var record messageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(msgRefPrefix + id.String()))
		if err != nil {
			return err
		}
		primaryKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(primaryKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &record)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(record)
}

// ListByConversation scans the conversation prefix forward. Thanks to the
// padded timestamp in the key, messages come back createdAt-ascending.
// Collection stops once the configured limitMessages is reached.
func (m *MessageRepository) ListByConversation(conversationID string) ([]domain.Message, error) {
	var records []messageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(msgPrefix + conversationID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(records) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var record messageRecord
				if err := msgpack.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		message, err := toMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message domain.Message) messageRecord {
	return messageRecord{
		ID:             message.ID.String(),
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Text:           message.Text,
		ReadBy:         lo.Uniq(message.ReadBy),
		CreatedAt:      message.CreatedAt.UnixNano(),
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:             parsedID,
		ConversationID: record.ConversationID,
		SenderID:       record.SenderID,
		Text:           record.Text,
		ReadBy:         record.ReadBy,
		CreatedAt:      time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
