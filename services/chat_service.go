package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"secure-messenger/contract"
	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
)

type IChatService interface {
	CanSend(text string) bool
	SendText(ctx context.Context, text string) (string, error)
	SendPhoto(ctx context.Context, name string, content io.Reader) (string, error)
}

// AuthorSource gives the display name outgoing messages are signed with.
type AuthorSource interface {
	Author() string
}

type censor interface {
	Censor(text string) (string, []string)
}

// ChatService composes and appends outgoing messages. It never waits for the echoed change event.
type ChatService struct {
	log       *slog.Logger
	appender  contract.Appender
	objects   contract.ObjectStore
	author    AuthorSource
	channel   feed.Channel
	moderator censor
}

func NewChatService(log *slog.Logger, appender contract.Appender, objects contract.ObjectStore,
	author AuthorSource, channel feed.Channel) *ChatService {
	return &ChatService{
		log:      log,
		appender: appender,
		objects:  objects,
		author:   author,
		channel:  channel,
	}
}

// WithModerator masks censored words of outgoing texts.
func (s *ChatService) WithModerator(m censor) *ChatService {
	s.moderator = m
	return s
}

func (s *ChatService) CanSend(text string) bool {
	return chat.CanSend(text)
}

// SendText returns the key assigned to the new entry.
func (s *ChatService) SendText(ctx context.Context, text string) (string, error) {
	return s.handle(ctx, chat.SendTextCommand{Channel: s.channel, Author: s.author.Author(), Text: text})
}

// SendPhoto uploads the photo then appends a record referencing the uploaded URL.
func (s *ChatService) SendPhoto(ctx context.Context, name string, content io.Reader) (string, error) {
	return s.handle(ctx, chat.SendPhotoCommand{
		Channel: s.channel,
		Author:  s.author.Author(),
		Name:    filepath.Base(name),
		Content: content,
	})
}

func (s *ChatService) handle(ctx context.Context, cmd chat.Command) (string, error) {
	var message chat.Message
	var err error
	switch c := cmd.(type) {
	case chat.SendTextCommand:
		message, err = s.textMessage(c)
	case chat.SendPhotoCommand:
		message, err = s.photoMessage(ctx, c)
	default:
		err = fmt.Errorf("unknown command %T", cmd)
	}
	if err != nil {
		s.log.Error("Message not sent", "channel", cmd.Target(), "error", err)
		return "", err
	}

	key, err := s.appender.Append(ctx, cmd.Target(), chat.Encode(message))
	if err != nil {
		s.log.Error("Append failed", "channel", cmd.Target(), "error", err)
		return "", fmt.Errorf("append to %s: %w", cmd.Target(), err)
	}
	s.log.Debug("Message sent", "channel", cmd.Target(), "key", key, "photo", message.IsPhoto())
	return key, nil
}

func (s *ChatService) textMessage(cmd chat.SendTextCommand) (chat.Message, error) {
	text, err := chat.ValidateText(cmd.Text)
	if err != nil {
		return chat.Message{}, err
	}
	if s.moderator != nil {
		var words []string
		if text, words = s.moderator.Censor(text); len(words) > 0 {
			s.log.Info("Outgoing text censored", "words", len(words))
		}
	}
	return chat.NewTextMessage(text, cmd.Author)
}

func (s *ChatService) photoMessage(ctx context.Context, cmd chat.SendPhotoCommand) (chat.Message, error) {
	url, err := s.objects.Upload(ctx, cmd.Name, cmd.Content)
	if err != nil {
		return chat.Message{}, fmt.Errorf("upload %s: %w", cmd.Name, err)
	}
	return chat.NewPhotoMessage(url, cmd.Author)
}
