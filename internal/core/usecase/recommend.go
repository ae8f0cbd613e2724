package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/provoco/clauseadvisor/internal/core/domain"
	"github.com/provoco/clauseadvisor/internal/core/ports"
	"github.com/provoco/clauseadvisor/internal/fingerprint"
)

// RecommendClausesUseCase drives the clause recommendation path: convert,
// reuse or compute the document embedding, retrieve candidates, run the
// selection protocol and enrich the accepted selections.
type RecommendClausesUseCase struct {
	converter ports.TextConverter
	cache     ports.EmbeddingCache
	embedder  ports.Embedder
	retriever *HybridRetriever
	protocol  *SelectionProtocol
	corpus    ports.CorpusIndex
}

func NewRecommendClausesUseCase(
	converter ports.TextConverter,
	cache ports.EmbeddingCache,
	embedder ports.Embedder,
	retriever *HybridRetriever,
	protocol *SelectionProtocol,
	corpus ports.CorpusIndex,
) *RecommendClausesUseCase {
	return &RecommendClausesUseCase{
		converter: converter,
		cache:     cache,
		embedder:  embedder,
		retriever: retriever,
		protocol:  protocol,
		corpus:    corpus,
	}
}

func (uc *RecommendClausesUseCase) Recommend(ctx context.Context, filename string, raw []byte) (*domain.Recommendation, error) {
	text, err := uc.converter.Convert(filename, raw)
	if err != nil {
		return nil, err
	}

	queryVector, err := uc.queryEmbedding(ctx, fingerprint.Of(raw), text)
	if err != nil {
		return nil, err
	}

	candidates, err := uc.retriever.Retrieve(ctx, queryVector, text)
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	corpusNames := uc.suffixedNames()
	selections, err := uc.protocol.Run(ctx, text, candidates, corpusNames)
	if err != nil {
		return nil, fmt.Errorf("selection protocol: %w", err)
	}

	return &domain.Recommendation{
		Matches: enrichSelections(selections, uc.corpus),
	}, nil
}

// queryEmbedding consumes the cached embedding for this fingerprint when a
// prior classification run left one behind; a miss silently recomputes.
func (uc *RecommendClausesUseCase) queryEmbedding(ctx context.Context, fp, text string) ([]float32, error) {
	if entry, ok := uc.cache.Take(fp); ok {
		slog.Debug("embedding_cache_hit", "fingerprint", fp)
		return entry.Vector, nil
	}

	vector, err := uc.embedder.EmbedDocument(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query document: %w", err)
	}
	return vector, nil
}

func (uc *RecommendClausesUseCase) suffixedNames() []string {
	names := uc.corpus.Names()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name + domain.ClauseFileSuffix
	}
	return out
}
