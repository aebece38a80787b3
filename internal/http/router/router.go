package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/wardrobe-backend/internal/config"
	"github.com/ignatzorin/wardrobe-backend/internal/http/handlers"
	"github.com/ignatzorin/wardrobe-backend/internal/http/middleware"
	"github.com/ignatzorin/wardrobe-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	uploadHandler *handlers.UploadHandler,
	clothingHandler *handlers.ClothingHandler,
	outfitHandler *handlers.OutfitHandler,
	searchHandler *handlers.SearchHandler,
	resaleHandler *handlers.ResaleHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.POST("/logout", authHandler.Logout)
		protectedAuth.GET("/me", authHandler.Me)
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), authHandler.DeleteSession)
	}

	// Все маршруты гардероба доступны только владельцу.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Загрузка фото: одиночные вещи и целые образы.
		protected.POST("/images", uploadHandler.UploadItems)
		protected.POST("/outfits/upload", uploadHandler.UploadOutfit)

		// Вещи гардероба
		protected.GET("/clothes", clothingHandler.List)
		protected.POST("/clothes", clothingHandler.Create)
		protected.POST("/clothes/by-field", searchHandler.FilterItems)
		protected.GET("/clothes/unique-values", searchHandler.UniqueValues)
		protected.GET("/clothes/search", searchHandler.SearchItems)
		protected.GET("/clothes/:id", middleware.UUIDValidator("id"), clothingHandler.Get)
		protected.PUT("/clothes/:id", middleware.UUIDValidator("id"), clothingHandler.Update)
		protected.DELETE("/clothes/:id", middleware.UUIDValidator("id"), clothingHandler.Delete)
		protected.POST("/clothes/:id/worn", middleware.UUIDValidator("id"), clothingHandler.MarkWorn)

		// Образы
		protected.GET("/outfits", outfitHandler.List)
		protected.GET("/outfits/search", searchHandler.SearchOutfits)
		protected.GET("/outfits/:id", middleware.UUIDValidator("id"), outfitHandler.Get)
		protected.PATCH("/outfits/:id", middleware.UUIDValidator("id"), outfitHandler.Update)
		protected.DELETE("/outfits/:id", middleware.UUIDValidator("id"), outfitHandler.Delete)
		protected.POST("/outfits/:id/wear", middleware.UUIDValidator("id"), outfitHandler.LogWear)
		protected.GET("/wear-history", outfitHandler.ListWearHistory)
		protected.DELETE("/wear-history/:id", middleware.UUIDValidator("id"), outfitHandler.DeleteWearRecord)

		// Перепродажа
		protected.GET("/ebay/auth/url", resaleHandler.EbayAuthURL)
		protected.POST("/ebay/auth", resaleHandler.EbayAuthorize)
		protected.POST("/listings", resaleHandler.Create)
		protected.GET("/listings", resaleHandler.List)
		protected.GET("/listings/:id", middleware.UUIDValidator("id"), resaleHandler.Get)
		protected.PUT("/listings/:id", middleware.UUIDValidator("id"), resaleHandler.Update)
		protected.PATCH("/listings/:id/close", middleware.UUIDValidator("id"), resaleHandler.Close)
		protected.DELETE("/listings/:id", middleware.UUIDValidator("id"), resaleHandler.Delete)
	}

	return r
}
