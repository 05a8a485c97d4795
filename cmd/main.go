package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"secure-messenger/auth"
	"secure-messenger/domain/feed"
	"secure-messenger/infrastructure/hub"
	"secure-messenger/internal"
	"secure-messenger/moderation"
	"secure-messenger/projection"
	"secure-messenger/repositories"
	"secure-messenger/runtime"
	"secure-messenger/services"
	"secure-messenger/sink"
	"secure-messenger/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the client and keeps every defer executed before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Local backend
	feedHub := hub.NewHub(log, repositories.NewFeedRepository(db, log), hub.NewRegistry())
	defer feedHub.Shutdown()
	tokens := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(log, repositories.NewUserRepository(db), tokens)
	photos := storage.NewDiskPhotoStore(log, config.PhotoRootDir)

	// 4. Client core
	channel := feed.Channel(config.Channel)
	store := projection.NewFeedStore()
	store.Observe(sink.NewTerminalSink(os.Stdout, true))
	listener := runtime.NewFeedListener(log, feedHub, store, config.RestartInterval, config.Resubscribe)
	session := services.NewSession(log, authService, listener, store, channel, config.RestartInterval)
	chatService := services.NewChatService(log, feedHub, photos, session, channel)

	if words := moderation.ParseWords(config.CensoredWords); len(words) > 0 {
		moderator, err := moderation.NewModerator(words, replacement, log)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator: %w", err)
		}
		chatService.WithModerator(moderator)
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.Resume(ctx)
	defer session.Pause()

	c := newClient(os.Stdout, authService, chatService, session)
	c.help()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// 6. Read commands until Ctrl+C, /quit or end of input
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down gracefully...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if quit := c.handle(ctx, line); quit {
				return exitOK, nil
			}
		}
	}
}
