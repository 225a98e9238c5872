package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/voiceline/voiceline-api/internal/config"
	"github.com/voiceline/voiceline-api/router"
)

func main() {
	log.Println("Starting voiceline API server...")

	// Load Config
	configPath := os.Getenv("VOICELINE_CONFIG_PATH")

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Database connection
	if config.App.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable (or config) is required")
	}

	pg, err := sql.Open("postgres", config.App.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	if err := pg.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Set timezone to UTC for consistent time handling
	if _, err := pg.Exec("SET TIME ZONE 'UTC'"); err != nil {
		log.Printf("Failed to set timezone to UTC: %v", err)
	}

	log.Println("Connected to database successfully")

	// Redis is optional: without it routing events are simply not published
	var redisClient *redis.Client
	if config.App.RedisURL != "" {
		opts, err := redis.ParseURL(config.App.RedisURL)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, routing events disabled: %v", err)
		} else {
			redisClient = redis.NewClient(opts)
		}
	} else {
		log.Println("No REDIS_URL configured, routing events disabled")
	}

	r := router.NewGinRouter(pg, redisClient)

	addr := ":" + config.App.Port
	log.Printf("Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
