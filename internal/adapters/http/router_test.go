package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

type classifierFake struct {
	report   *domain.ExposureReport
	err      error
	filename string
	raw      []byte
}

func (f *classifierFake) Classify(_ context.Context, filename string, raw []byte) (*domain.ExposureReport, error) {
	f.filename = filename
	f.raw = raw
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type recommenderFake struct {
	recommendation *domain.Recommendation
	err            error
}

func (f *recommenderFake) Recommend(context.Context, string, []byte) (*domain.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recommendation, nil
}

func newTestRouter(classifier *classifierFake, recommender *recommenderFake, frontend FrontendConfig) http.Handler {
	return NewRouter(classifier, recommender, nil, "./testdata", frontend, nil, "test").Handler(TrafficConfig{})
}

func multipartUpload(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestProcessContract(t *testing.T) {
	classifier := &classifierFake{report: &domain.ExposureReport{
		Classification:       domain.BucketLikely,
		HighlightedOutputURL: "/output/highlighted_output_1.html",
		BucketLabels:         domain.BucketLabels(),
	}}
	handler := newTestRouter(classifier, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUpload(t, "/process", "contract.txt", "the contract"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if classifier.filename != "contract.txt" || string(classifier.raw) != "the contract" {
		t.Fatalf("upload not forwarded: %q %q", classifier.filename, classifier.raw)
	}

	var report domain.ExposureReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Classification != domain.BucketLikely {
		t.Fatalf("classification = %q", report.Classification)
	}
	if report.BucketLabels["cat0"] != "unlikely" {
		t.Fatalf("bucket labels = %v", report.BucketLabels)
	}
}

func TestProcessMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProcessMissingFileField(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("not multipart")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProcessEmptyUpload(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUpload(t, "/process", "contract.txt", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unsupported format", domain.WrapError(domain.ErrUnsupportedFormat, "convert", errors.New("xlsx")), http.StatusBadRequest},
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "convert", errors.New("empty")), http.StatusBadRequest},
		{"temporary", domain.WrapError(domain.ErrTemporary, "score", errors.New("down")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestRouter(&classifierFake{err: tt.err}, &recommenderFake{}, FrontendConfig{})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, multipartUpload(t, "/process", "contract.txt", "x"))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	handler := newTestRouter(&classifierFake{err: errors.New("pgx: secret dsn leaked")}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUpload(t, "/process", "contract.txt", "x"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret dsn") {
		t.Fatalf("5xx body leaked internals: %s", rec.Body.String())
	}
}

func TestFindClauses(t *testing.T) {
	recommender := &recommenderFake{recommendation: &domain.Recommendation{
		Matches: []domain.ClauseMatch{{
			Name:             "Carbon Reporting",
			ChildName:        "Carbon Reporting (Supplier)",
			ClauseURL:        "https://clauses.example/carbon",
			Reason:           "fits",
			EmissionsSources: []string{"scope 1"},
		}},
	}}
	handler := newTestRouter(&classifierFake{}, recommender, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUpload(t, "/find_clauses", "contract.txt", "x"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var recommendation domain.Recommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &recommendation); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(recommendation.Matches) != 1 || recommendation.Matches[0].Name != "Carbon Reporting" {
		t.Fatalf("unexpected recommendation %+v", recommendation)
	}
}

func TestFindClausesEmptyMatchesSerializesAsArray(t *testing.T) {
	recommender := &recommenderFake{recommendation: &domain.Recommendation{Matches: []domain.ClauseMatch{}}}
	handler := newTestRouter(&classifierFake{}, recommender, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUpload(t, "/find_clauses", "contract.txt", "x"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"matches":[]`) {
		t.Fatalf("empty matches should serialize as [], got %s", rec.Body.String())
	}
}

func TestFrontendDisabledHasNoRootPage(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFrontendBasicAuth(t *testing.T) {
	frontend := FrontendConfig{Enabled: true, Username: "reviewer", Password: "s3cret"}
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, frontend)

	t.Run("missing credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("expected WWW-Authenticate challenge")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("reviewer", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("valid credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("reviewer", "s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
			t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	classifier := &classifierFake{report: &domain.ExposureReport{}}
	router := NewRouter(classifier, &recommenderFake{}, nil, "./testdata", FrontendConfig{}, nil, "test")
	handler := router.Handler(TrafficConfig{RateLimitRPS: 1, RateLimitBurst: 1, RetryAfterSeconds: 3})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "3" {
		t.Fatalf("Retry-After = %q", second.Header().Get("Retry-After"))
	}
}

func TestBackpressureOnlyGuardsAnalysisPaths(t *testing.T) {
	block := make(chan struct{})
	release := make(chan struct{})
	classifier := &blockingClassifier{block: block, release: release}
	router := NewRouter(classifier, &recommenderFake{}, nil, "./testdata", FrontendConfig{}, nil, "test")
	handler := router.Handler(TrafficConfig{MaxInFlight: 1, RetryAfterSeconds: 1})

	firstReq := multipartUpload(t, "/process", "a.txt", "x")
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, firstReq)
	}()
	<-block

	rejected := httptest.NewRecorder()
	handler.ServeHTTP(rejected, multipartUpload(t, "/process", "b.txt", "x"))
	if rejected.Code != http.StatusTooManyRequests {
		t.Fatalf("saturated analysis request status = %d, want 429", rejected.Code)
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health check must bypass backpressure, got %d", health.Code)
	}

	close(release)
	<-done
}

type blockingClassifier struct {
	block   chan struct{}
	release chan struct{}
}

func (c *blockingClassifier) Classify(context.Context, string, []byte) (*domain.ExposureReport, error) {
	close(c.block)
	<-c.release
	return &domain.ExposureReport{}, nil
}

func TestRequestIDIsEchoedAndPreserved(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "caller-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "caller-supplied-id" {
		t.Fatalf("X-Request-Id = %q", got)
	}
}

type historyFake struct {
	records []domain.AnalysisRecord
	err     error
	limit   int
}

func (f *historyFake) ListRecent(_ context.Context, limit int) ([]domain.AnalysisRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func TestHistoryEndpoint(t *testing.T) {
	history := &historyFake{records: []domain.AnalysisRecord{
		{ID: "run-2", Filename: "b.pdf", Classification: domain.BucketLikely},
		{ID: "run-1", Filename: "a.pdf", Classification: domain.BucketUnlikely},
	}}
	handler := NewRouter(&classifierFake{}, &recommenderFake{}, history, "./testdata", FrontendConfig{}, nil, "test").Handler(TrafficConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if history.limit != 2 {
		t.Fatalf("limit = %d, want 2", history.limit)
	}
	var payload struct {
		Analyses []domain.AnalysisRecord `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Analyses) != 2 || payload.Analyses[0].ID != "run-2" {
		t.Fatalf("unexpected analyses %+v", payload.Analyses)
	}
}

func TestHistoryEndpointRejectsBadLimit(t *testing.T) {
	handler := NewRouter(&classifierFake{}, &recommenderFake{}, &historyFake{}, "./testdata", FrontendConfig{}, nil, "test").Handler(TrafficConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?limit=lots", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHistoryEndpointEmptyIsNeverNull(t *testing.T) {
	handler := NewRouter(&classifierFake{}, &recommenderFake{}, &historyFake{}, "./testdata", FrontendConfig{}, nil, "test").Handler(TrafficConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"analyses":[]`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHistoryEndpointAbsentWhenDisabled(t *testing.T) {
	handler := newTestRouter(&classifierFake{}, &recommenderFake{}, FrontendConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
