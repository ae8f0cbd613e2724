package ports

import (
	"context"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

// ContractClassifier is the inbound contract for the exposure classification
// path (/process).
type ContractClassifier interface {
	Classify(ctx context.Context, filename string, raw []byte) (*domain.ExposureReport, error)
}

// ClauseRecommender is the inbound contract for the clause recommendation
// path (/find_clauses).
type ClauseRecommender interface {
	Recommend(ctx context.Context, filename string, raw []byte) (*domain.Recommendation, error)
}
