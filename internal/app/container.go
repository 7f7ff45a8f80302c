// Package app wires the dependency graph. Everything is explicitly
// constructed and injected here; no package holds singleton state.
package app

import (
	"github.com/rs/zerolog"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/infrastructure/bulk"
	"github.com/fintask/fintask-go/internal/infrastructure/config"
	"github.com/fintask/fintask-go/internal/infrastructure/facade"
	"github.com/fintask/fintask-go/internal/infrastructure/matcher"
	"github.com/fintask/fintask-go/internal/infrastructure/router"
	"github.com/fintask/fintask-go/internal/infrastructure/safety"
	"github.com/fintask/fintask-go/internal/infrastructure/store"
	"github.com/fintask/fintask-go/internal/pkg/logger"
	"github.com/fintask/fintask-go/internal/ports"
	"github.com/fintask/fintask-go/internal/services"
)

// Container holds the wired application services.
type Container struct {
	Config  config.Config
	Chat    *services.ChatService
	Intent  *services.IntentProcessor
	Learned ports.LearnedStore
	Log     zerolog.Logger
}

// BuildContainer constructs the full dependency graph from the environment.
func BuildContainer(verbose bool) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		verbose = true
	}
	log := logger.New("fintask", verbose)

	dataStore := facade.NewClient(cfg.FacadeURL, log.With().Str("component", "facade").Logger())

	var learned ports.LearnedStore
	if ls, err := store.Open(cfg.LearnedDBPath()); err != nil {
		// Degraded but functional: queries simply aren't remembered.
		log.Warn().Err(err).Msg("learned store unavailable")
	} else {
		learned = ls
	}

	transport := router.NewHTTPTransport(cfg.ModelEndpoint, "")
	modelRouter := router.New(transport, domain.DefaultTiers(),
		log.With().Str("component", "router").Logger())

	fallback := matcher.New(dataStore, learned,
		log.With().Str("component", "matcher").Logger())

	intent := services.NewIntentProcessor(dataStore, modelRouter, learned, fallback,
		log.With().Str("component", "intent").Logger())
	fallback.SetExecutor(intent)

	filter, err := safety.NewFilter(cfg.SafetyRulesPath)
	if err != nil {
		return nil, err
	}

	bulkMatcher := bulk.New(dataStore, log.With().Str("component", "bulk").Logger())

	chat := services.NewChatService(filter, bulkMatcher, intent,
		log.With().Str("component", "chat").Logger())

	return &Container{
		Config:  cfg,
		Chat:    chat,
		Intent:  intent,
		Learned: learned,
		Log:     log,
	}, nil
}

// Close releases held resources.
func (c *Container) Close() {
	if c.Learned != nil {
		_ = c.Learned.Close()
	}
}
