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
	userIDPrefix    = "user:id:"
	userEmailPrefix = "user:email:"
	userNamePrefix  = "user:name:"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// userRecord is the on-disk representation. The password hash lives
// with the account record and never leaves the repository except for
// credential checks.
type userRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

// Create persists a user under three keys: the id key is the canonical
// record, the email and username keys guard uniqueness and serve the
// login lookup. All writes happen in one transaction.
func (u *UserRepository) Create(user domain.User, passwordHash string) error {
	record := userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt.UnixNano(),
	}
	data, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}

	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(userEmailPrefix + user.Email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if _, err := txn.Get([]byte(userNamePrefix + user.Username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set([]byte(userIDPrefix+user.ID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(userEmailPrefix+user.Email), data); err != nil {
			return err
		}
		return txn.Set([]byte(userNamePrefix+user.Username), []byte(user.ID))
	})
}

// GetByEmail returns the user and their password hash for the login flow.
func (u *UserRepository) GetByEmail(email string) (domain.User, string, error) {
	record, err := u.getRecord(userEmailPrefix + email)
	if err != nil {
		return domain.User{}, "", err
	}
	return toUser(record), record.PasswordHash, nil
}

func (u *UserRepository) GetByID(id string) (domain.User, error) {
	record, err := u.getRecord(userIDPrefix + id)
	if err != nil {
		return domain.User{}, err
	}
	return toUser(record), nil
}

// List returns every registered user sorted by username ascending.
func (u *UserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userIDPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record userRecord
				if err := msgpack.Unmarshal(val, &record); err != nil {
					return err
				}
				users = append(users, toUser(record))
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

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (u *UserRepository) getRecord(key string) (userRecord, error) {
	var record userRecord
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &record)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return userRecord{}, errors.ErrUserNotFound
	}
	if err != nil {
		return userRecord{}, err
	}
	return record, nil
}

func toUser(record userRecord) domain.User {
	return domain.User{
		ID:        record.ID,
		Username:  record.Username,
		Email:     record.Email,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}
}
