package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/provoco/clauseadvisor/internal/config"
	"github.com/provoco/clauseadvisor/internal/core/ports"
	"github.com/provoco/clauseadvisor/internal/core/usecase"
	"github.com/provoco/clauseadvisor/internal/infrastructure/cache/memory"
	"github.com/provoco/clauseadvisor/internal/infrastructure/chunking"
	"github.com/provoco/clauseadvisor/internal/infrastructure/classifier/climatebert"
	"github.com/provoco/clauseadvisor/internal/infrastructure/corpus"
	"github.com/provoco/clauseadvisor/internal/infrastructure/extractor/textconv"
	"github.com/provoco/clauseadvisor/internal/infrastructure/llm/openrouter"
	"github.com/provoco/clauseadvisor/internal/infrastructure/mlmodel"
	"github.com/provoco/clauseadvisor/internal/infrastructure/queue/nats"
	"github.com/provoco/clauseadvisor/internal/infrastructure/renderer/htmlpage"
	"github.com/provoco/clauseadvisor/internal/infrastructure/repository/postgres"
	"github.com/provoco/clauseadvisor/internal/infrastructure/resilience"
	"github.com/provoco/clauseadvisor/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	ClassifyUC  ports.ContractClassifier
	RecommendUC ports.ClauseRecommender
	History     ports.AnalysisHistory

	OutputDir string

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	corpusIndex, err := corpus.Load(corpus.LoaderConfig{
		ClauseDir:         cfg.ClauseDir,
		TagsWorkbookPath:  cfg.TagsWorkbookPath,
		EmissionTablePath: cfg.EmissionTablePath,
	})
	if err != nil {
		return nil, fmt.Errorf("load clause corpus: %w", err)
	}

	clusterModel, err := mlmodel.LoadClusterModel(cfg.ClusterModelPath)
	if err != nil {
		return nil, fmt.Errorf("load cluster model: %w", err)
	}

	outputs, err := localfs.New(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	bertClient := climatebert.New(cfg.ClimateBERTURL, cfg.ClimateBERTScoreModel, cfg.ClimateBERTEmbedModel, executor)
	embedder := climatebert.NewEmbedder(bertClient)
	scorer := climatebert.NewScorer(bertClient)

	// The selection protocol owns the retry budget for completions, so the
	// LLM client gets a breaker without transport retries.
	llmExecutor := resilience.NewExecutor(resilience.NoRetryConfig())
	completer := openrouter.New(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, 0, llmExecutor)

	embeddingCache := memory.NewEmbeddingCache(time.Duration(cfg.EmbeddingCacheTTLSeconds) * time.Second)
	converter := textconv.New()
	splitter := chunking.NewSentenceSplitter(0)
	renderer := htmlpage.New()

	thresholds, err := bucketThresholds(cfg)
	if err != nil {
		return nil, err
	}

	var recorder ports.AnalysisRecorder
	var history ports.AnalysisHistory
	closeFns := []func(){embeddingCache.Close}
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewAnalysisRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		recorder = repo
		history = repo
		closeFns = append(closeFns, func() { _ = db.Close() })
	} else {
		slog.Info("analysis_history_disabled", "reason", "no postgres dsn configured")
	}

	var publisher ports.EventPublisher
	if cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = queue
		closeFns = append(closeFns, queue.Close)
	} else {
		slog.Info("event_publishing_disabled", "reason", "no nats url configured")
	}

	classifyUC := usecase.NewClassifyContractUseCase(
		converter,
		embeddingCache,
		embedder,
		splitter,
		scorer,
		renderer,
		outputs,
		recorder,
		publisher,
		cfg.Keywords,
		thresholds,
		cfg.OutputBaseURL,
	)

	retriever := usecase.NewHybridRetriever(corpusIndex, clusterModel, embedder, usecase.RetrievalPolicy{
		BOWSimilarityThreshold: cfg.BOWSimilarityThreshold,
		BOWTopK:                cfg.BOWTopK,
		BOWTopM:                cfg.BOWTopM,
	})
	protocol := usecase.NewSelectionProtocol(completer, usecase.SelectionPolicy{
		ContextExcerptChars:   cfg.ContextExcerptChars,
		ConfirmationMaxTokens: cfg.ConfirmationMaxTokens,
		NameMatchCutoff:       cfg.NameMatchCutoff,
	})
	recommendUC := usecase.NewRecommendClausesUseCase(
		converter,
		embeddingCache,
		embedder,
		retriever,
		protocol,
		corpusIndex,
	)

	slog.Info("bootstrap_complete",
		"corpus_clauses", corpusIndex.Len(),
		"cluster_model_version", clusterModel.Version(),
		"history_enabled", recorder != nil,
		"events_enabled", publisher != nil,
	)

	return &App{
		Config:      cfg,
		ClassifyUC:  classifyUC,
		RecommendUC: recommendUC,
		History:     history,
		OutputDir:   outputs.BasePath(),
		closeFn: func() {
			for i := len(closeFns) - 1; i >= 0; i-- {
				closeFns[i]()
			}
		},
	}, nil
}

func bucketThresholds(cfg config.Config) (usecase.BucketThresholds, error) {
	override, err := cfg.LoadBucketThresholds()
	if err != nil {
		return usecase.BucketThresholds{}, fmt.Errorf("load bucket thresholds: %w", err)
	}
	if override == nil {
		return usecase.DefaultBucketThresholds(), nil
	}
	return usecase.BucketThresholds{
		Possible:   override.Possible,
		Likely:     override.Likely,
		VeryLikely: override.VeryLikely,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
