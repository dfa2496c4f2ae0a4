package repositories

import (
	stderrors "errors"
	"sort"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	convPrefix      = "conv:"
	convIndexPrefix = "convidx:"
	convPairPrefix  = "convpair:"
)

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type conversationRecord struct {
	ID           string
	Participants []string
	CreatedAt    int64
}

// Create persists a conversation, one membership index entry per
// participant, and for bilateral conversations a deterministic pair key
// so the find-or-create flow never produces duplicates.
func (c *ConversationRepository) Create(conversation domain.Conversation) error {
	if len(conversation.Participants) < 2 {
		return errors.ErrInvalidPayload
	}
	record := conversationRecord{
		ID:           conversation.ID,
		Participants: conversation.Participants,
		CreatedAt:    conversation.CreatedAt.UnixNano(),
	}
	data, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(convPrefix+conversation.ID), data); err != nil {
			return err
		}
		for _, p := range conversation.Participants {
			if err := txn.Set([]byte(convIndexPrefix+p+":"+conversation.ID), []byte(conversation.ID)); err != nil {
				return err
			}
		}
		if len(conversation.Participants) == 2 {
			return txn.Set([]byte(pairKey(conversation.Participants[0], conversation.Participants[1])),
				[]byte(conversation.ID))
		}
		return nil
	})
}

// FindByID returns ErrConversationNotFound for an unknown id so callers
// can distinguish absence from membership denial.
func (c *ConversationRepository) FindByID(id string) (domain.Conversation, error) {
	var record conversationRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(convPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &record)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(record), nil
}

// FindBilateral resolves the two-party conversation between userA and
// userB regardless of argument order.
func (c *ConversationRepository) FindBilateral(userA, userB string) (domain.Conversation, error) {
	var convID string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(pairKey(userA, userB)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			convID = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return c.FindByID(convID)
}

// ListForUser walks the membership index and resolves each conversation.
func (c *ConversationRepository) ListForUser(userID string) ([]domain.Conversation, error) {
	var ids []string
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(convIndexPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
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

	var conversations []domain.Conversation
	for _, id := range ids {
		conversation, err := c.FindByID(id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

func pairKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return convPairPrefix + pair[0] + ":" + pair[1]
}

func toConversation(record conversationRecord) domain.Conversation {
	return domain.Conversation{
		ID:           record.ID,
		Participants: record.Participants,
		CreatedAt:    time.Unix(0, record.CreatedAt).UTC(),
	}
}
