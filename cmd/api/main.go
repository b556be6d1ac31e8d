package main

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"pasarbuku/internal/adapter/api"
	"pasarbuku/internal/adapter/api/handler"
	apimiddleware "pasarbuku/internal/adapter/api/middleware"
	"pasarbuku/internal/adapter/api/router"
	"pasarbuku/internal/adapter/repository"
	"pasarbuku/internal/infrastructure/firebase"
	"pasarbuku/internal/infrastructure/jwtauth"
	"pasarbuku/internal/infrastructure/websocket"
	"pasarbuku/internal/usecase"
	"pasarbuku/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.ServiceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	// Token verification: Firebase in production, shared-secret HS256 tokens
	// for local development.
	var verifier apimiddleware.TokenVerifier
	var devVerifier *jwtauth.Verifier

	if cfg.Environment == "development" {
		if cfg.JWTSecret == "" {
			log.Fatalf("JWT_SECRET is required in development")
		}
		devVerifier = jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTExpiry)
		verifier = devVerifier
	} else {
		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}

		verifier = firebase.NewFirebaseAuthClient(authClient)
	}

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	bookRepo := repository.NewFirestoreBookRepository(firestoreClient)
	orderRepo := repository.NewFirestoreOrderRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	wsManager := websocket.NewManager(verifier)
	wsManager.Start(ctx)

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, bookRepo, wsManager)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, bookRepo, chatUseCase)

	// The manager checks membership and persists messages through the chat
	// use case; set after construction to close the loop.
	wsManager.SetChatService(chatUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	handlers := router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase),
		Order:     handler.NewOrderHandler(orderUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager),
	}
	if devVerifier != nil {
		handlers.DevToken = handler.NewDevTokenHandler(devVerifier)
	}

	router.Setup(e, handlers, authMiddleware, cfg.Environment)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
