package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    string
	SessionSecret string
	// DataPath is the sqlite file holding the registry's key-value mirror.
	DataPath string

	// AccessMode selects the authorization model: "rbac" or "open".
	AccessMode string

	AdminUsername  string
	AdminPassword  string
	ViewerUsername string
	ViewerPassword string

	GeminiAPIKey string
	VoiceModel   string
	VoiceName    string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:     os.Getenv("SERVER_PORT"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		DataPath:       os.Getenv("DATA_PATH"),
		AccessMode:     os.Getenv("ACCESS_MODE"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		ViewerUsername: os.Getenv("VIEWER_USERNAME"),
		ViewerPassword: os.Getenv("VIEWER_PASSWORD"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		VoiceModel:     os.Getenv("VOICE_MODEL"),
		VoiceName:      os.Getenv("VOICE_NAME"),
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.DataPath == "" {
		cfg.DataPath = "autotrack.db"
	}
	if cfg.AccessMode == "" {
		cfg.AccessMode = "rbac"
	}

	// fixed demo credentials, overridable from the environment
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
	}

	// the voice assistant stays disabled without an API key
	if cfg.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY is not set, voice assistant disabled")
	}

	return cfg
}
