package main

import (
	"context"
	"log"
	"time"

	"canaccesible/middleware"
	"canaccesible/models"
	"canaccesible/pkg/cache"
	"canaccesible/pkg/config"
	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"
	"canaccesible/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB() (*gorm.DB, error) {
	if config.DatabaseDSN != "" {
		return gorm.Open(mysql.Open(config.DatabaseDSN), &gorm.Config{})
	}
	// development fallback
	return gorm.Open(sqlite.Open(config.SQLitePath), &gorm.Config{})
}

func main() {
	// config init via package init()

	db, err := openDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Role{}, &models.User{},
		&models.Conversation{}, &models.Message{},
		&models.Incident{}, &models.IncidentComment{}, &models.IncidentLike{},
		&models.Blog{}, &models.Notification{},
	); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}
	if _, err := models.SeedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
		config.UserConcurrencyLimit,
	)
	middleware.SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)
	cache.SetMaxItems(config.IncidentCacheMaxItems)

	var rdb *redis.Client
	if config.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: config.RedisAddr, Password: config.RedisPassword})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
	}

	st := store.New(db)
	h := hub.New(rdb)
	go h.Run()
	if rdb != nil {
		go h.SubscribeLoop(context.Background())
	}

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, st, h)
	if err := r.Run(":" + config.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
