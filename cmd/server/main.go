package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/wardrobe-backend/internal/ai"
	"github.com/ignatzorin/wardrobe-backend/internal/config"
	"github.com/ignatzorin/wardrobe-backend/internal/db"
	httpHandlers "github.com/ignatzorin/wardrobe-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/wardrobe-backend/internal/http/router"
	"github.com/ignatzorin/wardrobe-backend/internal/logger"
	"github.com/ignatzorin/wardrobe-backend/internal/marketplace"
	"github.com/ignatzorin/wardrobe-backend/internal/repository"
	"github.com/ignatzorin/wardrobe-backend/internal/search"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
	"github.com/ignatzorin/wardrobe-backend/internal/storage"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIModel, cfg.EmbeddingModel, cfg.ExternalTimeout)

	index, err := search.NewQdrantIndex(cfg.QdrantHost, cfg.QdrantPort, aiClient)
	if err != nil {
		log.Fatalf("main: не удалось подключиться к векторному индексу: %v", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Printf("main: ошибка закрытия векторного индекса: %v", err)
		}
	}()

	photoStorage, err := storage.NewPhotoStorage(ctx, cfg.S3Bucket, cfg.S3Region, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище фотографий: %v", err)
	}

	ebayClient := marketplace.NewEbayClient(cfg.EbayBaseURL, cfg.EbayAuthHeader, cfg.EbayRedirectURI, cfg.ExternalTimeout)
	facebookClient := marketplace.NewFacebookClient("", cfg.FacebookCatalogID, cfg.FacebookToken, cfg.ExternalTimeout)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	clothingRepo := repository.NewClothingRepository(dbConn)
	outfitRepo := repository.NewOutfitRepository(dbConn)
	listingRepo := repository.NewListingRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	wardrobeService := service.NewWardrobeService(clothingRepo, aiClient, index, photoStorage)
	outfitService := service.NewOutfitService(outfitRepo, clothingRepo, aiClient, index, photoStorage)
	searchService := service.NewSearchService(clothingRepo, outfitRepo, index, cfg.SearchDistanceThreshold)
	resaleService := service.NewResaleService(listingRepo, clothingRepo, userRepo, ebayClient, facebookClient)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	uploadHandler := httpHandlers.NewUploadHandler(wardrobeService, outfitService)
	clothingHandler := httpHandlers.NewClothingHandler(wardrobeService)
	outfitHandler := httpHandlers.NewOutfitHandler(outfitService)
	searchHandler := httpHandlers.NewSearchHandler(searchService)
	resaleHandler := httpHandlers.NewResaleHandler(resaleService, httpHandlers.EbayAuthConfig{
		AuthorizeURL: cfg.EbayAuthorizeURL,
		ClientID:     cfg.EbayClientID,
		RedirectURI:  cfg.EbayRedirectURI,
		Scope:        cfg.EbayScope,
	})
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, uploadHandler, clothingHandler, outfitHandler, searchHandler, resaleHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
