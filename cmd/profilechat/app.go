package main

import (
	"fmt"
	"log/slog"

	"github.com/kalambet/profilechat/internal/blob"
	"github.com/kalambet/profilechat/internal/completion"
	"github.com/kalambet/profilechat/internal/config"
	"github.com/kalambet/profilechat/internal/history"
	"github.com/kalambet/profilechat/internal/observability"
	"github.com/kalambet/profilechat/internal/profile"
	"github.com/kalambet/profilechat/internal/session"
)

// app is the wired object graph shared by every command.
type app struct {
	blobs   blob.Store
	metrics *observability.Metrics
	manager *session.Manager
}

func newApp(cfg config.Config) (*app, error) {
	blobs, err := blob.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	llm, err := completion.New(completion.Options{
		Provider:   cfg.LLM.Provider,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		MaxTokens:  cfg.LLM.MaxTokens,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		blobs.Close()
		return nil, err
	}

	metrics := observability.NewMetrics("profilechat")
	log := history.NewLog(blobs)
	store := profile.NewStore(blobs)

	mgr := session.NewManager(session.Deps{
		History:      log,
		Store:        store,
		Resolver:     profile.NewResolver(store, log, metrics),
		Extractor:    profile.NewExtractor(llm, metrics),
		Completer:    llm,
		Metrics:      metrics,
		HistoryFiles: cfg.Session.HistoryFiles,
	})

	slog.Debug("app wired",
		"storage", cfg.Storage.Backend,
		"data_dir", cfg.Storage.DataDir,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
	)
	return &app{blobs: blobs, metrics: metrics, manager: mgr}, nil
}

func (a *app) Close() {
	if err := a.blobs.Close(); err != nil {
		printWarning("closing storage: %v", err)
	}
}

// loadApp loads configuration, installs logging and wires the app.
// requireKey is false for commands that never call the completion backend.
func loadApp(requireKey bool) (*app, config.Config, error) {
	load := config.LoadLocal
	if requireKey {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, config.Config{}, err
	}
	setupLogging(cfg.Log.Level)

	a, err := newApp(cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	return a, cfg, nil
}
