package main

import (
	"context"
	"fmt"
	"log"

	"autotrack/internal/config"
	"autotrack/internal/handlers"
	"autotrack/internal/models"
	"autotrack/internal/policy"
	"autotrack/internal/registry"
	"autotrack/internal/server"
	"autotrack/internal/session"
	"autotrack/internal/storage"
	"autotrack/internal/voice"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	kv, err := storage.OpenSQLite(cfg.DataPath)
	if err != nil {
		logger.Fatal("failed to open data store", zap.Error(err))
	}
	defer kv.Close()

	pol := policy.New(policy.Mode(cfg.AccessMode))

	store, err := registry.New(context.Background(), kv, pol)
	if err != nil {
		logger.Fatal("failed to init vehicle store", zap.Error(err))
	}

	creds, err := buildCredentials(cfg)
	if err != nil {
		logger.Fatal("failed to prepare credentials", zap.Error(err))
	}
	sessions := session.NewManager(kv, creds)

	h := &handlers.Handlers{
		Store:    store,
		Sessions: sessions,
		Log:      logger,
	}
	if cfg.GeminiAPIKey != "" {
		h.VoiceDialer = &voice.GenAIDialer{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.VoiceModel,
			Voice:  cfg.VoiceName,
		}
	}

	r := server.NewRouter(cfg, h)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("access_mode", string(pol.Mode())),
		zap.Int("vehicles", store.Count()))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func buildCredentials(cfg *config.Config) ([]session.Credential, error) {
	admin, err := session.NewCredential(cfg.AdminUsername, cfg.AdminPassword, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	creds := []session.Credential{admin}

	if cfg.ViewerUsername != "" && cfg.ViewerPassword != "" {
		viewer, err := session.NewCredential(cfg.ViewerUsername, cfg.ViewerPassword, models.RoleViewer)
		if err != nil {
			return nil, err
		}
		creds = append(creds, viewer)
	}
	return creds, nil
}
