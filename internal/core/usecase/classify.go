package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/provoco/clauseadvisor/internal/core/domain"
	"github.com/provoco/clauseadvisor/internal/core/ports"
	"github.com/provoco/clauseadvisor/internal/fingerprint"
)

// ClassifyContractUseCase drives the exposure classification path: convert,
// embed (shared via cache with the recommendation path), score sentences,
// bucket, render and persist the highlighted output.
type ClassifyContractUseCase struct {
	converter  ports.TextConverter
	cache      ports.EmbeddingCache
	embedder   ports.Embedder
	splitter   ports.SentenceSplitter
	scorer     ports.SentenceScorer
	renderer   ports.HighlightRenderer
	outputs    ports.OutputStore
	recorder   ports.AnalysisRecorder
	publisher  ports.EventPublisher
	keywords   []string
	thresholds BucketThresholds
	outputBase string

	now func() time.Time
}

func NewClassifyContractUseCase(
	converter ports.TextConverter,
	cache ports.EmbeddingCache,
	embedder ports.Embedder,
	splitter ports.SentenceSplitter,
	scorer ports.SentenceScorer,
	renderer ports.HighlightRenderer,
	outputs ports.OutputStore,
	recorder ports.AnalysisRecorder,
	publisher ports.EventPublisher,
	keywords []string,
	thresholds BucketThresholds,
	outputBase string,
) *ClassifyContractUseCase {
	if outputBase == "" {
		outputBase = "/output"
	}
	return &ClassifyContractUseCase{
		converter:  converter,
		cache:      cache,
		embedder:   embedder,
		splitter:   splitter,
		scorer:     scorer,
		renderer:   renderer,
		outputs:    outputs,
		recorder:   recorder,
		publisher:  publisher,
		keywords:   lowercaseAll(keywords),
		thresholds: thresholds,
		outputBase: strings.TrimRight(outputBase, "/"),
		now:        time.Now,
	}
}

func (uc *ClassifyContractUseCase) Classify(ctx context.Context, filename string, raw []byte) (*domain.ExposureReport, error) {
	doc, err := uc.prepare(filename, raw)
	if err != nil {
		return nil, err
	}

	uc.shareEmbedding(ctx, doc)

	predictions, err := uc.scoreSentences(ctx, doc.Text)
	if err != nil {
		return nil, err
	}

	bucket := bucketFor(predictions, uc.thresholds)

	outputURL, err := uc.renderHighlights(ctx, doc.Text, predictions)
	if err != nil {
		return nil, err
	}

	uc.recordRun(ctx, doc, bucket, predictions, outputURL)

	return &domain.ExposureReport{
		Classification:       bucket,
		HighlightedOutputURL: outputURL,
		BucketLabels:         domain.BucketLabels(),
	}, nil
}

func (uc *ClassifyContractUseCase) prepare(filename string, raw []byte) (*domain.Document, error) {
	text, err := uc.converter.Convert(filename, raw)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Filename:    filename,
		Fingerprint: fingerprint.Of(raw),
		Raw:         raw,
		Text:        text,
	}, nil
}

// shareEmbedding precomputes the document embedding so a follow-up clause
// recommendation for the same bytes can reuse it. Classification itself does
// not depend on the embedding, so a failure here only costs the cache entry.
func (uc *ClassifyContractUseCase) shareEmbedding(ctx context.Context, doc *domain.Document) {
	vector, err := uc.embedder.EmbedDocument(ctx, doc.Text)
	if err != nil {
		slog.Warn("embedding_precompute_failed", "fingerprint", doc.Fingerprint, "error", err)
		return
	}
	uc.cache.Put(doc.Fingerprint, domain.CachedEmbedding{Vector: vector, Text: doc.Text})
}

func (uc *ClassifyContractUseCase) scoreSentences(ctx context.Context, text string) ([]domain.SentencePrediction, error) {
	sentences := uc.splitter.Split(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	relevant, err := uc.scorer.Score(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("score sentences: %w", err)
	}

	predictions := make([]domain.SentencePrediction, len(sentences))
	for i, sentence := range sentences {
		predictions[i] = domain.SentencePrediction{
			Sentence:     sentence,
			Relevant:     i < len(relevant) && relevant[i],
			KeywordMatch: uc.matchesKeyword(sentence),
		}
	}
	return predictions, nil
}

func (uc *ClassifyContractUseCase) matchesKeyword(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, keyword := range uc.keywords {
		if keyword != "" && strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func (uc *ClassifyContractUseCase) renderHighlights(ctx context.Context, text string, predictions []domain.SentencePrediction) (string, error) {
	flagged := make([]string, 0, len(predictions))
	for _, p := range predictions {
		if p.Flagged() {
			flagged = append(flagged, p.Sentence)
		}
	}

	html, err := uc.renderer.Render(text, flagged)
	if err != nil {
		return "", fmt.Errorf("render highlighted output: %w", err)
	}

	filename := fmt.Sprintf("highlighted_output_%d.html", uc.now().Unix())
	if err := uc.outputs.Save(ctx, filename, strings.NewReader(html)); err != nil {
		return "", fmt.Errorf("save highlighted output: %w", err)
	}
	return uc.outputBase + "/" + filename, nil
}

// recordRun persists and announces the analysis. Both are best-effort side
// channels; the classification response never depends on them.
func (uc *ClassifyContractUseCase) recordRun(
	ctx context.Context,
	doc *domain.Document,
	bucket domain.Bucket,
	predictions []domain.SentencePrediction,
	outputURL string,
) {
	record := &domain.AnalysisRecord{
		ID:                uuid.NewString(),
		Fingerprint:       doc.Fingerprint,
		Filename:          doc.Filename,
		Classification:    bucket,
		RelevantSentences: countFlagged(predictions),
		TotalSentences:    len(predictions),
		OutputURL:         outputURL,
		CreatedAt:         uc.now().UTC(),
	}

	if uc.recorder != nil {
		if err := uc.recorder.Record(ctx, record); err != nil {
			slog.Warn("analysis_record_failed", "fingerprint", doc.Fingerprint, "error", err)
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishContractAnalyzed(ctx, record); err != nil {
			slog.Warn("analysis_publish_failed", "fingerprint", doc.Fingerprint, "error", err)
		}
	}
}

func lowercaseAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
