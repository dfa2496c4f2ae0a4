package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/auth"
	"chat-relay/httpapi"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/relay"
	"chat-relay/repositories"
	"chat-relay/services"
	"chat-relay/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle. The
// pattern keeps every defer (database close in particular) on the exit
// path and the entry point testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores & auth
	userRepository := repositories.NewUserRepository(db)
	conversationRepository := repositories.NewConversationRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	tokenManager := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)

	// 4. Moderation (disabled when no word list is configured)
	words, err := moderation.LoadWords(config.CensoredFilepath)
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	replacement, err := characterRune(config.CensorReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(words, replacement)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}
	if moderator != nil {
		log.Info(fmt.Sprintf("%d censored words loaded", len(words)))
	}

	// 5. Relay core and transports
	registry := relay.NewRegistry()
	var filter relay.TextFilter
	if moderator != nil {
		filter = moderator
	}
	relayCore := relay.NewRelay(log, conversationRepository, messageRepository, registry, filter)
	router := ws.NewRouter(log, relayCore)
	wsServer := ws.NewServer(log, tokenManager, registry, router, config.ConnectionBufferSize)

	authService := services.NewAuthService(userRepository, tokenManager)
	chatService := services.NewChatService(userRepository, conversationRepository, messageRepository)
	apiServer := httpapi.NewServer(log, authService, chatService, tokenManager)

	mux := http.NewServeMux()
	apiServer.Routes(mux)
	mux.HandleFunc("/ws", wsServer.Handler())

	// 6. Operator inspection
	internal.StartDebugServer(db, config.DebugPort, nil, func() map[string]any {
		return map[string]any{"Sessions": registry.Count()}
	})

	// 7. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final cleanup: stop accepting requests, then drop live sessions
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	wsServer.Close()
	log.Info("Program stopped cleanly")

	return nil
}
