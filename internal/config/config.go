package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
	Port        string `mapstructure:"port"`

	// Admin API auth
	JWTSecret string `mapstructure:"jwt_secret"`

	// Optional shared secret checked on telephony webhook endpoints
	WebhookSecret string `mapstructure:"webhook_secret"`

	// Default Agent: the terminal routing fallback, built once at startup
	DefaultAgent DefaultAgentConfig `mapstructure:"default_agent"`
}

type DefaultAgentConfig struct {
	Voice        string `mapstructure:"voice"`
	Language     string `mapstructure:"language"`
	SystemPrompt string `mapstructure:"system_prompt"`
	Greeting     string `mapstructure:"greeting"`
}

// App holds the global config instance
var App Config

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) error {
	// Auto-load .env file if present so 'go run' works without
	// manually exporting env vars. Missing .env is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	v := viper.New()

	// Defaults
	v.SetDefault("port", "8080")
	v.SetDefault("default_agent.voice", "alloy")
	v.SetDefault("default_agent.language", "en-US")
	v.SetDefault("default_agent.system_prompt",
		"You are a helpful assistant answering phone calls for our business.")
	v.SetDefault("default_agent.greeting",
		"Hello! Thank you for calling. How can I help you today?")

	// Config file settings
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("dev.config")
		v.SetConfigType("yaml")
	}

	// Environment variable settings
	v.SetEnvPrefix("voiceline")

	// Bind standard environment variables (Docker/deploy compatibility)
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("webhook_secret", "WEBHOOK_SECRET")

	// Default Agent env vars
	_ = v.BindEnv("default_agent.voice", "DEFAULT_AGENT_VOICE")
	_ = v.BindEnv("default_agent.language", "DEFAULT_AGENT_LANGUAGE")
	_ = v.BindEnv("default_agent.system_prompt", "DEFAULT_AGENT_PROMPT")
	_ = v.BindEnv("default_agent.greeting", "DEFAULT_AGENT_GREETING")

	v.AutomaticEnv()

	// 1. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and environment variables")
		} else {
			return err
		}
	} else {
		log.Printf("Loaded config from: %s", v.ConfigFileUsed())
	}

	// 2. Unmarshal into struct
	if err := v.Unmarshal(&App); err != nil {
		return err
	}

	return nil
}
