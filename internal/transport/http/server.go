package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "docuquery/internal/app"
	"docuquery/internal/answer"
	"docuquery/internal/bootstrap"
	"docuquery/internal/cache"
	"docuquery/internal/repository"
	"docuquery/internal/transport/http/handler"
	"docuquery/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	companyRepo := repository.NewCompanyRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	queryRepo := repository.NewUserQueryRepository(app.MySQL)

	answerCache := cache.NewAnswerCache(app.Redis, time.Duration(app.Config.Redis.AnswerTTLSeconds)*time.Second)
	answerer := answer.New(
		app.Embedder,
		app.Generator,
		app.VectorIndex,
		app.Config.Ingest.TopK,
		app.Config.Ingest.ContextCharLimit,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		companyRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(
		docRepo,
		app.Trigger,
		answerCache,
		app.Config.Ingest.TempDir,
		app.Config.Ingest.MaxUploadBytes,
	)
	queryService := appsvc.NewQueryService(answerer, queryRepo, answerCache)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService)
	chatHandler := handler.NewChatHandler(queryService)

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(authJWT, middleware.RequireAdmin())
	docGroup.POST("/upload", docHandler.Upload)
	docGroup.POST("/upload_url", docHandler.UploadURL)
	docGroup.GET("", docHandler.List)
	docGroup.GET("/download/:id", docHandler.Download)
	docGroup.DELETE("/delete/:id", docHandler.Delete)
	docGroup.POST("/reingest/:id", docHandler.Reingest)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(authJWT)
	chatGroup.POST("/query", chatHandler.Query)
	chatGroup.POST("/query_stream", chatHandler.QueryStream)
	chatGroup.GET("/history", chatHandler.History)

	return router
}
