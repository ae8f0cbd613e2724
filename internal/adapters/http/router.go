// Package httpadapter exposes the contract analysis pipelines over HTTP.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/provoco/clauseadvisor/internal/core/domain"
	"github.com/provoco/clauseadvisor/internal/core/ports"
	"github.com/provoco/clauseadvisor/internal/observability/metrics"
)

// maxUploadBytes caps the multipart body of both analysis endpoints.
const maxUploadBytes = 25 << 20

type Router struct {
	classifier  ports.ContractClassifier
	recommender ports.ClauseRecommender
	history     ports.AnalysisHistory
	outputDir   string
	frontend    FrontendConfig
	metrics     *metrics.HTTPServerMetrics
	serviceName string
}

type FrontendConfig struct {
	Enabled  bool
	Username string
	Password string
}

func NewRouter(
	classifier ports.ContractClassifier,
	recommender ports.ClauseRecommender,
	history ports.AnalysisHistory,
	outputDir string,
	frontend FrontendConfig,
	serverMetrics *metrics.HTTPServerMetrics,
	serviceName string,
) *Router {
	return &Router{
		classifier:  classifier,
		recommender: recommender,
		history:     history,
		outputDir:   outputDir,
		frontend:    frontend,
		metrics:     serverMetrics,
		serviceName: serviceName,
	}
}

func (rt *Router) Handler(trafficCfg TrafficConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/process", rt.processContract)
	mux.HandleFunc("/find_clauses", rt.findClauses)
	mux.Handle("/output/", http.StripPrefix("/output/", http.FileServer(http.Dir(rt.outputDir))))

	if rt.history != nil {
		mux.HandleFunc("/history", rt.recentAnalyses)
	}

	if rt.frontend.Enabled {
		mux.HandleFunc("/", rt.basicAuth(rt.classifierPage))
		mux.HandleFunc("/index2", rt.basicAuth(rt.recommenderPage))
	}

	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(trafficCfg, handler)
	handler = backpressureMiddleware(trafficCfg, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) processContract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filename, raw, ok := rt.readUpload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	report, err := rt.classifier.Classify(r.Context(), filename, raw)
	if err != nil {
		rt.writeError(w, r, "classify contract", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordClassification(rt.serviceName, string(report.Classification), time.Since(start))
	}

	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) findClauses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filename, raw, ok := rt.readUpload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	recommendation, err := rt.recommender.Recommend(r.Context(), filename, raw)
	if err != nil {
		rt.writeError(w, r, "recommend clauses", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRecommendation(rt.serviceName, len(recommendation.Matches), time.Since(start))
	}

	writeJSON(w, http.StatusOK, recommendation)
}

func (rt *Router) recentAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	records, err := rt.history.ListRecent(r.Context(), limit)
	if err != nil {
		rt.writeError(w, r, "list analysis history", err)
		return
	}
	if records == nil {
		records = []domain.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

// readUpload pulls the mandatory multipart "file" field and reads it fully.
// On failure it writes the error response itself and reports ok=false.
func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return "", nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read uploaded file"})
		return "", nil, false
	}
	if len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "uploaded file is empty"})
		return "", nil, false
	}
	return fileHeader.Filename, raw, true
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="clause-advisor"`)
	}

	logAttrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"action", action,
		"status", status,
		"error", err,
	}
	if status >= 500 {
		slog.Error("request_failed", logAttrs...)
	} else {
		slog.Warn("request_failed", logAttrs...)
	}

	writeJSON(w, status, map[string]string{"error": publicErrorMessage(err, status)})
}

func (rt *Router) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !credentialsMatch(username, rt.frontend.Username) || !credentialsMatch(password, rt.frontend.Password) {
			rt.writeError(w, r, "authenticate", fmt.Errorf("frontend login: %w", domain.ErrUnauthorized))
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
