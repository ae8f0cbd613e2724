package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/provoco/clauseadvisor/internal/core/domain"
	"github.com/provoco/clauseadvisor/internal/core/ports"
)

// RetrievalPolicy holds the tunable constants of the hybrid retrieval engine.
type RetrievalPolicy struct {
	BOWSimilarityThreshold float64
	BOWTopK                int
	BOWTopM                int
}

func DefaultRetrievalPolicy() RetrievalPolicy {
	return RetrievalPolicy{
		BOWSimilarityThreshold: 0.1,
		BOWTopK:                20,
		BOWTopM:                5,
	}
}

// HybridRetriever builds the bounded candidate set for a query document by
// combining a semantic (cluster) matcher with a lexical (bag-of-words)
// matcher over the corpus. Candidate count is bounded above by the assigned
// cluster's size plus the bow top-m.
type HybridRetriever struct {
	corpus   ports.CorpusIndex
	assigner ports.ClusterAssigner
	embedder ports.Embedder
	policy   RetrievalPolicy
}

func NewHybridRetriever(
	corpus ports.CorpusIndex,
	assigner ports.ClusterAssigner,
	embedder ports.Embedder,
	policy RetrievalPolicy,
) *HybridRetriever {
	if policy.BOWSimilarityThreshold <= 0 {
		policy.BOWSimilarityThreshold = DefaultRetrievalPolicy().BOWSimilarityThreshold
	}
	if policy.BOWTopK <= 0 {
		policy.BOWTopK = DefaultRetrievalPolicy().BOWTopK
	}
	if policy.BOWTopM <= 0 {
		policy.BOWTopM = DefaultRetrievalPolicy().BOWTopM
	}
	return &HybridRetriever{
		corpus:   corpus,
		assigner: assigner,
		embedder: embedder,
		policy:   policy,
	}
}

// Retrieve returns cluster candidates followed by bow candidates. The two
// sets are concatenated without dedup: a clause appearing in both carries
// both provenance tags into selection. An unassignable cluster never fails
// the call; the bow branch alone proceeds.
func (r *HybridRetriever) Retrieve(ctx context.Context, queryVector []float32, queryText string) ([]domain.Candidate, error) {
	candidates := r.clusterCandidates(queryVector)

	bowCandidates, err := r.bowCandidates(ctx, queryVector, queryText)
	if err != nil {
		return nil, err
	}

	return append(candidates, bowCandidates...), nil
}

func (r *HybridRetriever) clusterCandidates(queryVector []float32) []domain.Candidate {
	clusterID, ok := r.assigner.Assign(queryVector)
	if !ok {
		slog.Debug("cluster_assignment_skipped", "reason", "no label for query vector")
		return nil
	}

	entries := r.corpus.ByCluster(clusterID)
	candidates := make([]domain.Candidate, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, domain.Candidate{
			SourceName: entry.Name,
			Text:       entry.Text,
			MatchedBy:  domain.MatchedByCluster,
		})
	}
	return candidates
}

func (r *HybridRetriever) bowCandidates(ctx context.Context, queryVector []float32, queryText string) ([]domain.Candidate, error) {
	entries := r.corpus.All()
	names := make([]string, len(entries))
	texts := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
		texts[i] = entry.Text
	}

	pool := bowTopSimilar(queryText, names, texts, r.policy.BOWSimilarityThreshold, r.policy.BOWTopK)
	if len(pool) == 0 {
		return nil, nil
	}

	poolVectors, err := r.embedPool(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("embed bow pool: %w", err)
	}

	top := rerankByEmbedding(queryVector, pool, poolVectors, r.policy.BOWTopM)
	candidates := make([]domain.Candidate, 0, len(top))
	for _, match := range top {
		candidates = append(candidates, domain.Candidate{
			SourceName: match.name,
			Text:       match.text,
			MatchedBy:  domain.MatchedByBOW,
		})
	}
	return candidates, nil
}

func (r *HybridRetriever) embedPool(ctx context.Context, pool []bowMatch) ([][]float32, error) {
	vectors := make([][]float32, len(pool))
	for i, match := range pool {
		vector, err := r.embedder.EmbedDocument(ctx, match.text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}
