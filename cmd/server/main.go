package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/voxchat/voxgate/internal/api"
	"github.com/voxchat/voxgate/internal/config"
	"github.com/voxchat/voxgate/internal/database"
	"github.com/voxchat/voxgate/internal/hub"
	"github.com/voxchat/voxgate/internal/repositories"
	"github.com/voxchat/voxgate/internal/services"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Repositories
	eventLogRepo := repositories.NewPostgresEventLogRepository(postgresPool)
	peerRepo := repositories.NewPostgresPeerRepository(postgresPool)
	presenceRepo := repositories.NewRedisPresenceRepository(redisClient)

	// Core services
	syncService, err := services.NewSyncService(eventLogRepo, cfg.SnowflakeNode, cfg.SyncMaxLimit)
	if err != nil {
		log.Fatalf("Failed to create sync service: %v", err)
	}
	interactionStore := services.NewInteractionStore()
	guard := services.NewFederationGuard(services.NewHMACVerifier(peerRepo), peerRepo, cfg.FederationMaxSkew)
	tokens := services.NewTokenVerifier(cfg.JWTSecret)

	eventHub := hub.New(hub.NewRegistry(), syncService, presenceRepo)

	handler := api.NewHandler(cfg, eventHub, syncService, interactionStore, guard, tokens, presenceRepo)

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler.Router(),
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		eventHub.Close(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
