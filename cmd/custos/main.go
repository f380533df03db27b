package main

import (
	"log"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/custos/adapters/challenge"
	"github.com/layer-3/custos/adapters/events"
	"github.com/layer-3/custos/adapters/provider"
	"github.com/layer-3/custos/adapters/store"
	"github.com/layer-3/custos/service"
	"github.com/layer-3/custos/transport/http"
)

func main() {
	providerURL := os.Getenv("PROVIDER_BASE_URL")
	if providerURL == "" {
		log.Fatal("PROVIDER_BASE_URL is required")
	}
	apiKey := os.Getenv("PROVIDER_API_KEY")
	if apiKey == "" {
		log.Fatal("PROVIDER_API_KEY is required")
	}

	publicKeyPEM := os.Getenv("JWT_PUBLIC_KEY")
	if publicKeyPEM == "" {
		log.Fatal("JWT_PUBLIC_KEY is required")
	}
	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		log.Fatalf("Failed to parse JWT public key: %v", err)
	}

	// Get Redis URL from environment
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	// Parse Redis URL and create client
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	redisClient := redis.NewClient(opts)

	// Initialize Watermill Redis publisher
	logger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	providerClient := provider.NewClient(providerURL, apiKey)
	credentialStore := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	// The real secure-module bridge is supplied by the client runtime;
	// local runs auto-approve ceremonies.
	executor := challenge.NewExecutor(challenge.AutoApproveModule{}, challenge.DefaultCeremonyTimeout)

	provisioning := service.NewProvisioningService(providerClient, executor, credentialStore, eventPub)

	audience := os.Getenv("JWT_AUDIENCE")
	if audience == "" {
		audience = http.DefaultAudience
	}

	// Setup Gin router
	router := http.SetupRouter(provisioning, publicKey, audience)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":9000"
	}

	// Start server
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
