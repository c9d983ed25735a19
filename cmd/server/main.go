package main

import (
	"net/http"
	"os"
	"strings"

	"tododash-api/internal/auth"
	"tododash-api/internal/blob"
	"tododash-api/internal/database"
	"tododash-api/internal/handlers"
	"tododash-api/internal/logging"
	"tododash-api/internal/middleware"
	"tododash-api/internal/storage"
	tlsconf "tododash-api/internal/tls"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logConfig := logging.NewLogConfigFromEnv()
	logging.InitLogger(logConfig)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// In-memory storage keeps development setups free of PostgreSQL
	useInMemory := os.Getenv("USE_MEMORY_STORAGE") == "true"

	var db *gorm.DB
	var todoStore storage.Store

	if useInMemory {
		logging.Logger.Info("Using in-memory todo storage")
		todoStore = storage.NewMemoryStorage()

		// Auth still needs a relational store; sqlite fills in
		memDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
		if err != nil {
			logging.Logger.Fatalf("Failed to open sqlite database: %v", err)
		}
		if err := database.AutoMigrate(memDB); err != nil {
			logging.Logger.Fatalf("Failed to migrate sqlite database: %v", err)
		}
		db = memDB
	} else {
		dbConfig := database.NewConfigFromEnv()
		pgDB, err := database.Connect(dbConfig)
		if err != nil {
			logging.Logger.Fatalf("Failed to connect to database: %v", err)
		}

		if err := database.AutoMigrate(pgDB); err != nil {
			logging.Logger.Fatalf("Failed to run migrations: %v", err)
		}

		logging.Logger.Info("PostgreSQL storage initialized successfully")
		db = pgDB
		todoStore = storage.NewPostgresStorage(pgDB)
	}

	blobConfig := blob.NewConfigFromEnv()
	blobStore, err := blob.NewLocalStore(blobConfig)
	if err != nil {
		logging.Logger.Fatalf("Failed to initialize blob storage: %v", err)
	}

	jwtConfig := auth.NewJWTConfigFromEnv()
	authService := auth.NewService(db, jwtConfig)

	authHandler := handlers.NewAuthHandler(authService)
	todoHandler := handlers.NewTodoHandler(todoStore, blobStore)

	// Set up Gin router (without default logger since we'll use our own)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.SecurityHeaders())

	corsConfig := middleware.NewCORSConfigFromEnv()
	router.Use(middleware.CORS(corsConfig))

	securityConfig := middleware.NewSecurityConfigFromEnv()
	router.Use(middleware.RequestSizeLimit(securityConfig.MaxRequestBodySize))

	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorSanitizer())

	rateLimitConfig := middleware.NewRateLimitConfigFromEnv()
	router.Use(middleware.GlobalRateLimiter(rateLimitConfig))

	// Cover images are served straight off the blob directory
	if strings.HasPrefix(blobConfig.BaseURL, "/") {
		router.Static(blobConfig.BaseURL, blobStore.Dir())
	}

	authRoutes := router.Group("/auth")
	{
		authLimiter := middleware.AuthRateLimiter(rateLimitConfig)
		authRoutes.POST("/register", authLimiter, authHandler.Register)
		authRoutes.POST("/login", authLimiter, authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/profile", middleware.AuthMiddleware(jwtConfig), authHandler.GetProfile)
	}

	protected := router.Group("/", middleware.AuthMiddleware(jwtConfig))
	{
		protected.GET("", todoHandler.ListTodos)
		protected.POST("/todos", todoHandler.CreateTodo)
		protected.PUT("/todos/:todoId", middleware.UUIDValidator("todoId"), todoHandler.UpdateTodo)
		protected.DELETE("/todos/:todoId", middleware.UUIDValidator("todoId"), todoHandler.DeleteTodo)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
		})
	})

	// Form posts can only send POST; the wrapper rewrites _method overrides
	// before routing, capping the body read at the configured limit
	handler := middleware.MethodOverride(router, securityConfig.MaxRequestBodySize)

	tlsConfig := tlsconf.NewConfigFromEnv()
	if tlsConfig.Enabled {
		serverTLS, err := tlsConfig.CreateTLSConfig()
		if err != nil {
			logging.Logger.Fatalf("Failed to configure TLS: %v", err)
		}

		server := &http.Server{
			Addr:      ":" + tlsConfig.Port,
			Handler:   handler,
			TLSConfig: serverTLS,
		}

		logging.Logger.Infof("Starting HTTPS server on port %s...", tlsConfig.Port)
		if err := server.ListenAndServeTLS("", ""); err != nil {
			logging.Logger.Fatalf("Failed to start HTTPS server: %v", err)
		}
		return
	}

	logging.Logger.Infof("Starting server on port %s...", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logging.Logger.Fatalf("Failed to start server: %v", err)
	}
}
