// Package app assembles the talentmatch object graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/config"
	"github.com/kailas-cloud/talentmatch/internal/db"
	dbBadger "github.com/kailas-cloud/talentmatch/internal/db/badger"
	dbQdrant "github.com/kailas-cloud/talentmatch/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/talentmatch/internal/db/redis"
	dbValkey "github.com/kailas-cloud/talentmatch/internal/db/valkey"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	candidaterepo "github.com/kailas-cloud/talentmatch/internal/repository/candidate"
	"github.com/kailas-cloud/talentmatch/internal/repository/embcache"
	projectrepo "github.com/kailas-cloud/talentmatch/internal/repository/project"
	"github.com/kailas-cloud/talentmatch/internal/repository/vector"
	openaiEmb "github.com/kailas-cloud/talentmatch/internal/transport/openai"
	candidateuc "github.com/kailas-cloud/talentmatch/internal/usecase/candidate"
	embeddinguc "github.com/kailas-cloud/talentmatch/internal/usecase/embedding"
	"github.com/kailas-cloud/talentmatch/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
	"github.com/kailas-cloud/talentmatch/internal/usecase/maintenance"
	projectuc "github.com/kailas-cloud/talentmatch/internal/usecase/project"
	"github.com/kailas-cloud/talentmatch/internal/usecase/retrieval"
	"github.com/kailas-cloud/talentmatch/internal/usecase/vectorstore"
)

// VectorIndex is everything the services need from a namespace index.
type VectorIndex interface {
	vectorstore.Index
	retrieval.Index
	maintenance.Index
}

// App holds the assembled services and the resources they own.
type App struct {
	Candidates  *candidateuc.Service
	Projects    *projectuc.Service
	Retrieval   *retrieval.Pipeline
	Maintenance *maintenance.Service
	Health      *healthuc.Service
	Index       VectorIndex

	closers []func()
}

// Close releases pools and connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build wires every component described by cfg.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var kv db.Store
	if cfg.NeedsDatabase() {
		store, err := openDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		kv = store
	}

	docs, err := openDocumentStore(cfg, kv, logger)
	if err != nil {
		return nil, err
	}
	if docs != kv {
		a.closers = append(a.closers, docs.Close)
	}

	index, indexPinger, err := openVectorIndex(ctx, cfg, kv, a)
	if err != nil {
		return nil, err
	}
	a.Index = index

	docEmbedder, queryEmbedder, err := buildEmbedders(cfg, docs, logger)
	if err != nil {
		return nil, err
	}

	candidates := candidaterepo.New(docs).WithKeyPrefix(cfg.Storage.KeyPrefix)
	projects := projectrepo.New(docs).WithKeyPrefix(cfg.Storage.KeyPrefix)
	vectors := vectorstore.New(index, docEmbedder, logger)

	a.Candidates = candidateuc.New(candidates, vectors, logger)
	a.Projects = projectuc.New(projects, vectors, logger)

	engine, err := fusion.FromConfig(cfg.Fusion.Strategy, cfg.Fusion.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("fusion: %w", err)
	}
	a.Retrieval = retrieval.New(index, queryEmbedder, candidates, projects, engine, retrieval.Config{
		CandidateWeights: fusion.WeightsFromConfig(cfg.Fusion.CandidateWeights),
		ProjectWeights:   fusion.WeightsFromConfig(cfg.Fusion.ProjectWeights),
		DefaultTopK:      cfg.Retrieval.DefaultTopK,
		MaxTopK:          cfg.Retrieval.MaxTopK,
		OverfetchFactor:  cfg.Retrieval.OverfetchFactor,
		OverfetchMin:     cfg.Retrieval.OverfetchMin,
		OverfetchMax:     cfg.Retrieval.OverfetchMax,
	}, logger)

	a.Maintenance, err = maintenance.New(index, candidates, projects, vectors, cfg.Maintenance.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("maintenance: %w", err)
	}
	a.Maintenance.WithGracePeriod(time.Duration(cfg.Maintenance.OrphanGraceSec) * time.Second)
	a.closers = append(a.closers, a.Maintenance.Release)

	a.Health = healthuc.New(embeddingHealth{docEmbedder}).
		WithComponent("document_store", docs).
		WithComponent("vector_index", indexPinger)

	ok = true
	return a, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (db.Store, error) {
	rc := dbRedis.Config{Addrs: cfg.Database.Addrs, Password: cfg.Database.Password}

	var (
		store db.Store
		err   error
	)
	switch cfg.Database.Driver {
	case config.DriverValkey:
		store, err = dbValkey.NewStore(rc)
	default:
		store, err = dbRedis.NewStore(rc)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Database.Driver, err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Database.Driver, err)
	}
	return store, nil
}

func openDocumentStore(cfg *config.Config, kv db.Store, logger *zap.Logger) (db.DocumentStore, error) {
	if cfg.DocumentStore.Driver != config.DriverBadger {
		if kv == nil {
			return nil, errors.New("document store requires a database connection")
		}
		return kv, nil
	}
	store, err := dbBadger.Open(dbBadger.Config{
		Path:     cfg.DocumentStore.Path,
		InMemory: cfg.DocumentStore.InMemory,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return store, nil
}

func openVectorIndex(
	ctx context.Context, cfg *config.Config, kv db.Store, a *App,
) (VectorIndex, healthuc.Pinger, error) {
	dim := cfg.VectorIndex.Dimensions
	if cfg.VectorIndex.Driver == config.DriverQdrant {
		client, err := dbQdrant.Dial(ctx, dbQdrant.Config{
			Addr:        cfg.VectorIndex.Qdrant.Addr,
			DialTimeout: time.Duration(cfg.VectorIndex.Qdrant.DialTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		idx := vector.NewQdrantIndex(client, dim).WithCollectionPrefix(cfg.VectorIndex.Qdrant.CollectionPrefix)
		return idx, client, nil
	}

	if kv == nil {
		return nil, nil, errors.New("vector index requires a database connection")
	}
	idx := vector.NewRedisIndex(kv, dim).
		WithHNSW(vector.HNSWConfig{M: cfg.VectorIndex.HNSWM, EFConstruct: cfg.VectorIndex.HNSWEFConstruct}).
		WithKeyPrefix(cfg.Storage.KeyPrefix)
	return idx, kv, nil
}

// buildEmbedders assembles two decorator chains sharing one provider and cache:
// OpenAI -> Cached -> Instrumented -> Instruction. Documents and queries differ only
// in their instruction prefix, which is part of the cache key.
func buildEmbedders(
	cfg *config.Config, cache db.KVStore, logger *zap.Logger,
) (doc, query domain.Embedder, err error) {
	vc := cfg.Embedding.Vectorizer
	provCfg, found := cfg.Embedding.Providers[vc.Provider]
	if !found {
		return nil, nil, fmt.Errorf("embedding provider %q is not configured", vc.Provider)
	}

	var base domain.Embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vc.Model,
		Dimensions: vc.Dimensions,
		Provider:   vc.Provider,
		Logger:     logger,
	})
	if cfg.Embedding.Cache.Enabled {
		base = embcache.New(base, cache, metrics.EmbeddingCacheTotal, logger).
			WithKeyPrefix(cfg.Storage.KeyPrefix).
			WithModel(vc.Model, vc.Dimensions)
	}
	base = embeddinguc.NewInstrumentedEmbedder(base, vc.Provider, vc.Model, logger)

	return withInstruction(base, vc.DocumentInstruction), withInstruction(base, vc.QueryInstruction), nil
}

func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// embeddingHealth adapts an embedder to health.EmbeddingChecker.
type embeddingHealth struct {
	embedder domain.Embedder
}

func (h embeddingHealth) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
