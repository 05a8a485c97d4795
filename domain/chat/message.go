// Package chat contains the core concepts of the messenger.
// This file defines the Message record and the composition rules.
// Messages are immutable once built and validated by the domain.
package chat

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"secure-messenger/errors"

	"github.com/go-playground/validator/v10"
)

const (
	// Anonymous is the author used while nobody is signed in.
	Anonymous = "anonymous"
	// MaxMessageLength is counted in UTF-16 code units.
	MaxMessageLength = 1000
)

var validate = validator.New()

// Message represents one chat entry: either a text message or a photo message.
// An empty field means the field is absent.
type Message struct {
	Text     string `validate:"required_without=PhotoURL,excluded_with=PhotoURL"`
	Author   string
	PhotoURL string `validate:"required_without=Text"`
}

func NewTextMessage(text, author string) (Message, error) {
	return newMessage(Message{Text: text, Author: author})
}

func NewPhotoMessage(photoURL, author string) (Message, error) {
	return newMessage(Message{PhotoURL: photoURL, Author: author})
}

func newMessage(m Message) (Message, error) {
	if m.Author == "" {
		m.Author = Anonymous
	}
	if err := validate.Struct(m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	return m, nil
}

func (m Message) IsPhoto() bool {
	return m.PhotoURL != ""
}

// TextLength counts s in UTF-16 code units, the unit the composer limit is expressed in.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// CanSend reports whether the composer should offer the send action for text.
func CanSend(text string) bool {
	return strings.TrimSpace(text) != ""
}

// ValidateText returns the text as composed when it can be sent.
// Blank text is refused; the limit applies to the composed text, whitespace included.
func ValidateText(text string) (string, error) {
	if !CanSend(text) {
		return "", errors.ErrEmptyMessage
	}
	if n := TextLength(text); n > MaxMessageLength {
		return "", fmt.Errorf("%w: %d > %d", errors.ErrMessageTooLong, n, MaxMessageLength)
	}
	return text, nil
}
