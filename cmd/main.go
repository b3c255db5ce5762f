package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docveil/config"
	"docveil/jobs"
	"docveil/routes"
	"docveil/services"
	"docveil/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	config.LoadConfig()
	cfg := config.AppConfig

	utils.InitLogger(cfg.Env)

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	utils.Log.Info("Connected to MongoDB")

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to ping Redis: %v", err)
		}
		utils.Log.Info("Connected to Redis, permission caching enabled")
	} else {
		utils.Log.Info("Redis not configured, permission caching disabled")
	}

	var audit services.AuditPublisher = services.NoopAuditPublisher{}
	if cfg.RabbitURI != "" {
		publisher, err := services.NewRabbitAuditPublisher(cfg.RabbitURI, utils.Log)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		audit = publisher
		utils.Log.Info("Connected to RabbitMQ, activity events enabled")
	} else {
		utils.Log.Info("RabbitMQ not configured, activity events disabled")
	}
	defer audit.Close()

	container := routes.NewServiceContainer(
		mongoClient.Database(cfg.DatabaseName),
		cfg.JWTSecret,
		redisClient,
		cfg.PermissionCacheTTL,
		audit,
	)

	if err := container.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	api := router.Group("/api")
	routes.SetupRoutes(api, container)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	purger := jobs.NewTrashPurger(container.ResourceStore, container.PathService, cfg.TrashRetentionDays)
	if err := purger.Start(cfg.TrashPurgeSchedule); err != nil {
		log.Fatalf("Failed to start trash purger: %v", err)
	}
	defer purger.Stop()

	utils.Log.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
