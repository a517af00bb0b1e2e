package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venuematch_server/auth"
	"venuematch_server/broker"
	"venuematch_server/config"
	"venuematch_server/redis"
	"venuematch_server/routes"
	"venuematch_server/services"
	"venuematch_server/socket"
	"venuematch_server/store"

	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	ctx := context.Background()
	clock := services.SystemClock{}

	// Initialize the record store
	var recordStore store.Store
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		log.Println("Initializing DynamoDB client...")
		client, err := store.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			log.Fatalf("❌ Failed to initialize DynamoDB client: %v", err)
		}
		recordStore = store.NewDynamoStore(client, cfg.DynamoDBTable)
		log.Printf("DynamoDB client initialized, table %s.", cfg.DynamoDBTable)
	default:
		log.Println("⚠️ Using in-memory store; data is lost on restart")
		recordStore = store.NewMemoryStore()
	}

	// Check-ins, block list and typing markers
	var (
		checkIns services.CheckInProvider
		blocks   services.BlockList
		typing   services.TypingStore
	)
	switch cfg.CollaboratorBackend {
	case config.BackendRedis:
		rdb := redis.NewService(redis.Options{Addr: cfg.RedisURL, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx); err != nil {
			log.Fatalf("❌ Failed to connect to Redis at %s: %v", cfg.RedisURL, err)
		}
		defer rdb.Close()
		log.Printf("✅ Connected to Redis at %s", cfg.RedisURL)
		checkIns = &services.RedisCheckIns{Redis: rdb, TTL: cfg.CheckInTTL, Clock: clock}
		blocks = &services.RedisBlockList{Redis: rdb}
		typing = &services.RedisTypingStore{Redis: rdb, Clock: clock}
	default:
		checkIns = services.NewMemoryCheckIns(clock, cfg.CheckInTTL)
		blocks = services.NewMemoryBlockList()
		typing = services.NewMemoryTypingStore(clock)
	}

	var jwt *auth.JWT
	if cfg.JWTSecret != "" {
		jwt = auth.NewJWT(cfg.JWTSecret)
	} else {
		log.Printf("⚠️ JWT_SECRET not set; trusting the %s header", auth.UserHeader)
	}

	// Push channels
	hub := socket.NewHub(jwt)
	go hub.Serve()
	defer hub.Close()
	publishers := []services.Publisher{hub}

	if cfg.NATSURL != "" {
		conn, err := broker.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer conn.Drain()
		publishers = append(publishers, broker.NewPublisher(conn))
	}

	engine := services.NewEngine(services.Dependencies{
		Store:      recordStore,
		CheckIns:   checkIns,
		Blocks:     blocks,
		Typing:     typing,
		Validator:  services.BasicTextValidator{MaxLength: cfg.MaxMessageLength},
		Publishers: publishers,
		Clock:      clock,
	}, services.Settings{
		MatchWindow:       cfg.MatchWindow,
		InterestTTL:       cfg.InterestTTL,
		MessageCap:        cfg.MessageCap,
		TypingTTL:         cfg.TypingTTL,
		DependencyTimeout: cfg.DependencyTimeout,
	})

	r := routes.NewRouter(routes.Deps{
		Engine:         engine,
		CheckIns:       checkIns,
		Auth:           &auth.Authenticator{JWT: jwt},
		Socket:         hub.Handler(),
		RequestTimeout: cfg.RequestTimeout,
	})

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", auth.UserHeader},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Graceful shutdown failed: %v", err)
	}
}
