package app

import (
	"github.com/yungbote/eventforge/internal/config"
	"github.com/yungbote/eventforge/internal/generator"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/services"
	"github.com/yungbote/eventforge/internal/sources"
)

type Services struct {
	Events    services.EventService
	Pipeline  services.PipelineService
	Generator *generator.Generator
	Fallbacks *services.Fallbacks
}

func wireServices(log *logger.Logger, pipeline *config.Pipeline, clients Clients, reposet Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	gen := generator.New(clients.LLM, generator.OptionsFromEnv(log), log, metrics)
	registry := sources.NewRegistry(pipeline, log)
	fallbacks := services.NewFallbacks(pipeline.Presets, log)
	pool := services.PoolConfig{
		Mix:     pipeline.PoolMix,
		Decay:   pipeline.Decay,
		Cleanup: pipeline.Cleanup,
	}.WithEnv(log)

	return Services{
		Events:    services.NewEventService(log, reposet.Events, gen, fallbacks, pool, metrics),
		Pipeline:  services.NewPipelineService(log, registry, clients.Fetcher, gen, reposet.Events, fallbacks, pool, metrics),
		Generator: gen,
		Fallbacks: fallbacks,
	}
}
