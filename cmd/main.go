package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"crmconsole/backend/internal/api/handler"
	"crmconsole/backend/internal/assets"
	"crmconsole/backend/internal/config"
	"crmconsole/backend/internal/convo"
	"crmconsole/backend/internal/logger"
	"crmconsole/backend/internal/notify"
	"crmconsole/backend/internal/storage"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect PostgreSQL")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect Redis")
	}

	return db, rdb
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, rdb := setupDependencies(cfg)

	store := storage.NewService(db, rdb)
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database and Redis connections established, migrations complete")

	notifier := notify.NewWebhookNotifier(cfg.BotWebhookURL, cfg.TemplateWebhookURL)
	engine := convo.NewEngine(store, store, notifier, nil)

	var uploader assets.Uploader
	if cfg.S3Bucket != "" {
		uploader, err = assets.NewS3Uploader(assets.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 uploader")
		}
	}

	h := handler.NewHandler(engine, store, uploader, cfg.JWTSecret)

	r := gin.Default()
	r.GET("/auth/token", h.GetAgentToken)
	r.POST("/webhooks/inbound", h.IngestMessage)

	authed := r.Group("/", h.RequireAgent)
	authed.GET("/conversations", h.ListConversations)
	authed.GET("/conversations/:id/messages", h.GetHistory)
	authed.GET("/conversations/:id/window", h.GetWindowState)
	authed.GET("/conversations/:id/ws", h.ServeConversation)
	authed.POST("/conversations/:id/messages", h.SendMessage)
	authed.POST("/conversations/:id/notes", h.SendNote)
	authed.POST("/conversations/:id/attachments", h.SendAttachment)
	authed.GET("/templates", h.ListTemplates)
	authed.GET("/templates/:name", h.GetTemplate)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	log.Fatal().Err(server.ListenAndServe()).Msg("Server stopped")
}
