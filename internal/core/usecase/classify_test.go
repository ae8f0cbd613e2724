package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

type converterFake struct {
	text string
	err  error
}

func (f *converterFake) Convert(string, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type cacheFake struct {
	store map[string]domain.CachedEmbedding
	puts  int
	takes int
}

func newCacheFake() *cacheFake {
	return &cacheFake{store: map[string]domain.CachedEmbedding{}}
}

func (f *cacheFake) Put(fp string, entry domain.CachedEmbedding) {
	f.puts++
	f.store[fp] = entry
}

func (f *cacheFake) Take(fp string) (domain.CachedEmbedding, bool) {
	f.takes++
	entry, ok := f.store[fp]
	if ok {
		delete(f.store, fp)
	}
	return entry, ok
}

type splitterFake struct {
	sentences []string
}

func (f *splitterFake) Split(string) []string { return f.sentences }

type scorerFake struct {
	relevant []bool
	err      error
	got      []string
}

func (f *scorerFake) Score(_ context.Context, sentences []string) ([]bool, error) {
	f.got = sentences
	if f.err != nil {
		return nil, f.err
	}
	return f.relevant, nil
}

type rendererFake struct {
	flagged []string
	err     error
}

func (f *rendererFake) Render(_ string, flagged []string) (string, error) {
	f.flagged = flagged
	if f.err != nil {
		return "", f.err
	}
	return "<html>rendered</html>", nil
}

type outputStoreFake struct {
	filename string
	content  string
	err      error
}

func (f *outputStoreFake) Save(_ context.Context, filename string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	f.filename = filename
	raw, _ := io.ReadAll(data)
	f.content = string(raw)
	return nil
}

type recorderFake struct {
	records []*domain.AnalysisRecord
	err     error
}

func (f *recorderFake) Record(_ context.Context, record *domain.AnalysisRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type publisherFake struct {
	published []*domain.AnalysisRecord
	err       error
}

func (f *publisherFake) PublishContractAnalyzed(_ context.Context, record *domain.AnalysisRecord) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, record)
	return nil
}

type classifyFixture struct {
	converter *converterFake
	cache     *cacheFake
	embedder  *embedderFake
	splitter  *splitterFake
	scorer    *scorerFake
	renderer  *rendererFake
	outputs   *outputStoreFake
	recorder  *recorderFake
	publisher *publisherFake
}

func newClassifyFixture() *classifyFixture {
	return &classifyFixture{
		converter: &converterFake{text: "first sentence. second sentence. third sentence."},
		cache:     newCacheFake(),
		embedder:  &embedderFake{},
		splitter:  &splitterFake{sentences: []string{"first sentence.", "second sentence.", "third sentence."}},
		scorer:    &scorerFake{relevant: []bool{true, false, false}},
		renderer:  &rendererFake{},
		outputs:   &outputStoreFake{},
		recorder:  &recorderFake{},
		publisher: &publisherFake{},
	}
}

func (fx *classifyFixture) build(keywords []string) *ClassifyContractUseCase {
	return NewClassifyContractUseCase(
		fx.converter,
		fx.cache,
		fx.embedder,
		fx.splitter,
		fx.scorer,
		fx.renderer,
		fx.outputs,
		fx.recorder,
		fx.publisher,
		keywords,
		DefaultBucketThresholds(),
		"/output",
	)
}

func TestClassifyHappyPath(t *testing.T) {
	fx := newClassifyFixture()
	uc := fx.build(nil)

	report, err := uc.Classify(context.Background(), "contract.txt", []byte("raw bytes"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if report.Classification != domain.BucketVeryLikely {
		t.Fatalf("1/3 flagged should map to very likely, got %q", report.Classification)
	}
	if !strings.HasPrefix(report.HighlightedOutputURL, "/output/highlighted_output_") ||
		!strings.HasSuffix(report.HighlightedOutputURL, ".html") {
		t.Fatalf("unexpected output url %q", report.HighlightedOutputURL)
	}
	if report.BucketLabels["cat3"] != "very likely" {
		t.Fatalf("unexpected bucket labels %v", report.BucketLabels)
	}
	if fx.outputs.content != "<html>rendered</html>" {
		t.Fatalf("rendered output not saved: %q", fx.outputs.content)
	}
	if len(fx.renderer.flagged) != 1 || fx.renderer.flagged[0] != "first sentence." {
		t.Fatalf("unexpected flagged sentences %v", fx.renderer.flagged)
	}
}

func TestClassifySharesEmbeddingViaCache(t *testing.T) {
	fx := newClassifyFixture()
	uc := fx.build(nil)

	if _, err := uc.Classify(context.Background(), "contract.txt", []byte("raw bytes")); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if fx.cache.puts != 1 {
		t.Fatalf("expected 1 cache put, got %d", fx.cache.puts)
	}
}

func TestClassifySurvivesEmbeddingFailure(t *testing.T) {
	fx := newClassifyFixture()
	fx.embedder.err = errors.New("embed service down")
	uc := fx.build(nil)

	report, err := uc.Classify(context.Background(), "contract.txt", []byte("raw bytes"))
	if err != nil {
		t.Fatalf("embedding failure must not fail classification, got %v", err)
	}
	if report == nil {
		t.Fatal("expected a report")
	}
	if fx.cache.puts != 0 {
		t.Fatalf("failed embedding must not be cached, got %d puts", fx.cache.puts)
	}
}

func TestClassifyKeywordFlagging(t *testing.T) {
	fx := newClassifyFixture()
	fx.splitter.sentences = []string{"the supplier delivers goods.", "annual CARBON audit applies."}
	fx.scorer.relevant = []bool{false, false}
	uc := fx.build([]string{"carbon"})

	if _, err := uc.Classify(context.Background(), "contract.txt", []byte("raw")); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(fx.renderer.flagged) != 1 || fx.renderer.flagged[0] != "annual CARBON audit applies." {
		t.Fatalf("keyword match should flag the sentence, got %v", fx.renderer.flagged)
	}
}

func TestClassifyEmptyDocument(t *testing.T) {
	fx := newClassifyFixture()
	fx.splitter.sentences = nil
	uc := fx.build(nil)

	report, err := uc.Classify(context.Background(), "contract.txt", []byte("raw"))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if report.Classification != domain.BucketUnlikely {
		t.Fatalf("no sentences should map to unlikely, got %q", report.Classification)
	}
}

func TestClassifyConverterErrorPropagates(t *testing.T) {
	fx := newClassifyFixture()
	fx.converter.err = domain.WrapError(domain.ErrUnsupportedFormat, "convert contract.xyz", errors.New("unknown extension"))
	uc := fx.build(nil)

	_, err := uc.Classify(context.Background(), "contract.xyz", []byte("raw"))
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestClassifyScorerErrorPropagates(t *testing.T) {
	fx := newClassifyFixture()
	fx.scorer.err = errors.New("scoring service down")
	uc := fx.build(nil)

	if _, err := uc.Classify(context.Background(), "contract.txt", []byte("raw")); err == nil {
		t.Fatal("expected scorer error to propagate")
	}
}

func TestClassifyRecordsAndPublishesBestEffort(t *testing.T) {
	fx := newClassifyFixture()
	uc := fx.build(nil)

	if _, err := uc.Classify(context.Background(), "contract.txt", []byte("raw")); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(fx.recorder.records) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(fx.recorder.records))
	}
	record := fx.recorder.records[0]
	if record.ID == "" || record.Fingerprint == "" {
		t.Fatalf("record is missing identity fields: %+v", record)
	}
	if record.RelevantSentences != 1 || record.TotalSentences != 3 {
		t.Fatalf("unexpected sentence counts: %+v", record)
	}
	if len(fx.publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(fx.publisher.published))
	}
}

func TestClassifySurvivesRecorderAndPublisherFailures(t *testing.T) {
	fx := newClassifyFixture()
	fx.recorder.err = errors.New("db down")
	fx.publisher.err = errors.New("broker down")
	uc := fx.build(nil)

	if _, err := uc.Classify(context.Background(), "contract.txt", []byte("raw")); err != nil {
		t.Fatalf("side-channel failures must not fail classification, got %v", err)
	}
}

func TestClassifyWorksWithoutRecorderAndPublisher(t *testing.T) {
	fx := newClassifyFixture()
	uc := NewClassifyContractUseCase(
		fx.converter, fx.cache, fx.embedder, fx.splitter, fx.scorer,
		fx.renderer, fx.outputs, nil, nil, nil, DefaultBucketThresholds(), "/output",
	)

	if _, err := uc.Classify(context.Background(), "contract.txt", []byte("raw")); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
}
