package main

import (
	"context"
	"log"
	"os"
	"strconv"

	_ "supplierportal/api/swagger" // swagger docs
	"supplierportal/internal/cep"
	"supplierportal/internal/database"
	"supplierportal/internal/handler"
	"supplierportal/internal/middleware"
	"supplierportal/internal/repository"
	"supplierportal/internal/service"
	"supplierportal/internal/sienge"
	"supplierportal/internal/storage"
	"supplierportal/internal/websocket"
	"supplierportal/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Supplier Portal API
// @version         1.0
// @description     Supplier registration and approval portal with Sienge ERP integration.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	zlog, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer zlog.Sync()

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		zlog.Fatal("Database connection failed", zap.Error(err))
	}
	zlog.Info("Connected to PostgreSQL")

	// Sienge ERP adapter
	siengeClient := sienge.NewClient(sienge.Config{
		BaseURL:        os.Getenv("SIENGE_BASE_URL"),
		Username:       os.Getenv("SIENGE_USERNAME"),
		Password:       os.Getenv("SIENGE_PASSWORD"),
		DefaultCityID:  envOrInt("SIENGE_DEFAULT_CITY_ID", 1),
		DefaultAgentID: envOrInt("SIENGE_DEFAULT_AGENT_ID", 48),
	}, zlog)

	// Document blob store
	blobStore, err := storage.NewS3Store(context.Background(),
		envOr("S3_BUCKET", "supplier-documents"),
		envOr("AWS_REGION", "sa-east-1"))
	if err != nil {
		zlog.Fatal("S3 setup failed", zap.Error(err))
	}

	// WebSocket hub for dashboard events
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	supplierRepo := repository.NewSupplierRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRegistrationTokenRepository(db)
	cityRepo := repository.NewCityRepository(db)

	supplierService := service.NewSupplierService(
		supplierRepo, tokenRepo, cityRepo, txManager, siengeClient, wsHub, zlog,
		siengeClient.DefaultCityID(), siengeClient.DefaultAgentID())
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	registrationService := service.NewRegistrationService(tokenRepo, supplierRepo)
	documentService := service.NewDocumentService(supplierRepo, blobStore, zlog, uuid.NewString)

	supplierHandler := handler.NewSupplierHandler(supplierService)
	userHandler := handler.NewUserHandler(userService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	documentHandler := handler.NewDocumentHandler(documentService)
	lookupHandler := handler.NewLookupHandler(cityRepo, cep.NewClient())

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	supplierHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	registrationHandler.RegisterRoutes(router.Group(""))
	documentHandler.RegisterRoutes(router.Group(""))
	lookupHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	zlog.Info("Server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal("Server failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
