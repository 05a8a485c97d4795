//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"secure-messenger/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword, displayName string) (string, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository representation of an account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser persists the user under "user:{email}" and returns its new ID.
func (u UserRepository) CreateUser(email, hashedPassword, displayName string) (string, error) {
	newID := uuid.New().String()
	value, err := structpb.NewStruct(map[string]any{
		"id":            newID,
		"email":         email,
		"display_name":  displayName,
		"password_hash": hashedPassword,
		"created_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	data, err := proto.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// GetUserByEmail returns badger.ErrKeyNotFound when nobody registered with email.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var value structpb.Struct
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &value)
		})
	})
	if err != nil {
		return User{}, err
	}
	return toUser(&value), nil
}

func userKey(email string) []byte {
	return []byte("user:" + email)
}

func toUser(value *structpb.Struct) User {
	fields := value.GetFields()
	user := User{
		ID:           fields["id"].GetStringValue(),
		Email:        fields["email"].GetStringValue(),
		DisplayName:  fields["display_name"].GetStringValue(),
		PasswordHash: fields["password_hash"].GetStringValue(),
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, fields["created_at"].GetStringValue())
	return user
}
