package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/KirkDiggler/tta-core/internal/clients/llm"
	"github.com/KirkDiggler/tta-core/internal/config"
	"github.com/KirkDiggler/tta-core/internal/content"
	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/effects"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/moves"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/npc"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/quests"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/resources"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/skills"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/turn"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	redisclient "github.com/KirkDiggler/tta-core/internal/redis"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// app is the assembled engine stack behind both subcommands
type app struct {
	cfg *config.Config

	truthRepo truth.Repository
	graphRepo graph.Repository

	multiverse multiverse.Service
	turns      turn.Service
	quests     quests.Service
	library    *content.Library
	seeder     *content.Seeder

	cleanup []func() error
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	setupLogging(cfg)

	switch cfg.TruthStore {
	case config.StoreSQLite:
		repo, err := truth.NewSQLite(&truth.SQLiteConfig{Path: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		a.truthRepo = repo
		a.cleanup = append(a.cleanup, repo.Close)
	default:
		a.truthRepo = truth.NewInMemory()
	}

	switch cfg.GraphStore {
	case config.StoreRedis:
		client, err := redisclient.NewClient(cfg.RedisAddr, nil)
		if err != nil {
			return nil, err
		}
		a.cleanup = append(a.cleanup, client.Close)
		repo, err := graph.NewRedis(&graph.RedisConfig{Client: client})
		if err != nil {
			return nil, err
		}
		a.graphRepo = repo
	default:
		a.graphRepo = graph.NewInMemory()
	}

	var provider dice.Provider
	if cfg.DiceSeed != 0 {
		provider = dice.NewSeededProvider(uint64(cfg.DiceSeed))
	} else {
		provider = dice.NewCryptoProvider()
	}
	roller, err := dice.NewRoller(&dice.RollerConfig{Provider: provider})
	if err != nil {
		return nil, err
	}

	var narrator llm.Client
	if cfg.GeminiAPIKey != "" {
		narrator, err = llm.NewGemini(ctx, &llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			return nil, err
		}
	}

	idGen := idgen.NewUUID("tta")

	skillsSvc, err := skills.NewOrchestrator(&skills.Config{Roller: roller})
	if err != nil {
		return nil, err
	}
	effectsSvc, err := effects.NewOrchestrator(&effects.Config{
		Roller:    roller,
		Skills:    skillsSvc,
		TruthRepo: a.truthRepo,
		IDGen:     idGen,
	})
	if err != nil {
		return nil, err
	}
	resourcesSvc, err := resources.NewOrchestrator(&resources.Config{
		Roller:     roller,
		Skills:     skillsSvc,
		TruthRepo:  a.truthRepo,
		IDGen:      idGen,
		HeroicCost: cfg.HeroicCost,
	})
	if err != nil {
		return nil, err
	}
	movesSvc, err := moves.NewOrchestrator(&moves.Config{
		Roller:     roller,
		TruthRepo:  a.truthRepo,
		GraphRepo:  a.graphRepo,
		IDGen:      idGen,
		LLM:        narrator,
		LLMTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	npcSvc, err := npc.NewOrchestrator(&npc.Config{
		GraphRepo: a.graphRepo,
		IDGen:     idGen,
	})
	if err != nil {
		return nil, err
	}
	a.multiverse, err = multiverse.NewOrchestrator(&multiverse.Config{
		TruthRepo: a.truthRepo,
		GraphRepo: a.graphRepo,
		IDGen:     idGen,
	})
	if err != nil {
		return nil, err
	}
	a.quests, err = quests.NewOrchestrator(&quests.Config{
		TruthRepo: a.truthRepo,
		IDGen:     idGen,
	})
	if err != nil {
		return nil, err
	}

	a.library, err = content.NewLibrary()
	if err != nil {
		return nil, err
	}

	a.turns, err = turn.NewOrchestrator(&turn.Config{
		TruthRepo:  a.truthRepo,
		GraphRepo:  a.graphRepo,
		Skills:     skillsSvc,
		Effects:    effectsSvc,
		Resources:  resourcesSvc,
		Moves:      movesSvc,
		Multiverse: a.multiverse,
		NPC:        npcSvc,
		Abilities:  a.library,
		IDGen:      idGen,
	})
	if err != nil {
		return nil, err
	}

	a.seeder, err = content.NewSeeder(&content.SeedConfig{
		TruthRepo:  a.truthRepo,
		GraphRepo:  a.graphRepo,
		Multiverse: a.multiverse,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
