package ports

import (
	"context"
	"io"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

// TextConverter extracts plain text from an uploaded file. Conversion
// failures surface to the caller as invalid-input errors.
type TextConverter interface {
	Convert(filename string, raw []byte) (string, error)
}

// EmbeddingCache shares precomputed document embeddings between the two
// pipeline entry points, keyed by content fingerprint.
type EmbeddingCache interface {
	Put(fingerprint string, entry domain.CachedEmbedding)
	// Take retrieves and removes the entry for fingerprint. Absence is not
	// an error; the caller recomputes the embedding.
	Take(fingerprint string) (domain.CachedEmbedding, bool)
}

// Embedder builds the document-level embedding vector.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// SentenceScorer is the opaque pretrained classifier scoring each sentence
// as climate-relevant or not.
type SentenceScorer interface {
	Score(ctx context.Context, sentences []string) ([]bool, error)
}

// ClusterAssigner projects an embedding into the clustering space and
// assigns it to one cluster label.
type ClusterAssigner interface {
	// Assign returns false when no label can be assigned (degenerate input);
	// the retrieval pipeline then proceeds with the lexical branch only.
	Assign(vector []float32) (int, bool)
}

// ChatCompleter is the completion-service contract: an ordered message list
// in, a single assistant message out.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error)
}

// CorpusIndex is the read-only clause table loaded once at process start.
type CorpusIndex interface {
	Get(name string) (domain.ClauseEntry, bool)
	Names() []string
	ByCluster(clusterID int) []domain.ClauseEntry
	All() []domain.ClauseEntry
	// EmissionSources returns the emission-source labels for a clause from
	// the reference table. Missing lookups yield an empty set.
	EmissionSources(name string) []string
}

// SentenceSplitter splits extracted text into classifier-sized sentences.
type SentenceSplitter interface {
	Split(text string) []string
}

// HighlightRenderer produces the highlighted HTML rendering of a document.
type HighlightRenderer interface {
	Render(text string, flagged []string) (string, error)
}

// OutputStore persists rendered outputs for static serving.
type OutputStore interface {
	Save(ctx context.Context, filename string, data io.Reader) error
}

// AnalysisRecorder persists classification run history.
type AnalysisRecorder interface {
	Record(ctx context.Context, record *domain.AnalysisRecord) error
}

// AnalysisHistory reads back persisted classification runs, newest first.
type AnalysisHistory interface {
	ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
}

// EventPublisher announces completed analyses to downstream consumers.
// Publish failures are logged, never surfaced to the request.
type EventPublisher interface {
	PublishContractAnalyzed(ctx context.Context, record *domain.AnalysisRecord) error
}
