package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	// PostgresDSN and NATSURL are optional; when empty the analysis history
	// repository and the event publisher are not wired.
	PostgresDSN string

	NATSURL     string
	NATSSubject string

	ClimateBERTURL        string
	ClimateBERTScoreModel string
	ClimateBERTEmbedModel string

	OpenRouterURL    string
	OpenRouterAPIKey string
	OpenRouterModel  string

	ClauseDir         string
	TagsWorkbookPath  string
	EmissionTablePath string
	ClusterModelPath  string

	OutputDir     string
	OutputBaseURL string

	EmbeddingCacheTTLSeconds int

	BOWSimilarityThreshold float64
	BOWTopK                int
	BOWTopM                int

	ContextExcerptChars   int
	ConfirmationMaxTokens int
	NameMatchCutoff       float64

	BucketThresholdsPath string
	Keywords             []string

	FrontendEnabled  bool
	FrontendUsername string
	FrontendPassword string

	APIRateLimitRPS      float64
	APIRateLimitBurst    int
	APIMaxInFlight       int
	APIRetryAfterSeconds int
}

// BucketThresholds is the optional YAML override for the exposure category
// cut points. All three values are flagged-sentence ratios in [0,1].
type BucketThresholds struct {
	Possible   float64 `yaml:"possible"`
	Likely     float64 `yaml:"likely"`
	VeryLikely float64 `yaml:"very_likely"`
}

func Load() Config {
	// Absent .env file is the normal production case.
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "contracts.analyzed"),

		ClimateBERTURL:        mustEnv("CLIMATEBERT_URL", "http://localhost:8001"),
		ClimateBERTScoreModel: mustEnv("CLIMATEBERT_SCORE_MODEL", "climatebert-base-detector"),
		ClimateBERTEmbedModel: mustEnv("CLIMATEBERT_EMBED_MODEL", "climatebert-base-embed"),

		OpenRouterURL:    mustEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey: mustEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  mustEnv("OPENROUTER_MODEL", "deepseek/deepseek-chat"),

		ClauseDir:         mustEnv("CLAUSE_DIR", "./data/clauses"),
		TagsWorkbookPath:  mustEnv("TAGS_WORKBOOK_PATH", "./data/clause_tags.xlsx"),
		EmissionTablePath: mustEnv("EMISSION_TABLE_PATH", "./data/emission_sources.csv"),
		ClusterModelPath:  mustEnv("CLUSTER_MODEL_PATH", "./data/cluster_model.json"),

		OutputDir:     mustEnv("OUTPUT_DIR", "./data/output"),
		OutputBaseURL: mustEnv("OUTPUT_BASE_URL", "/output"),

		EmbeddingCacheTTLSeconds: mustEnvInt("EMBEDDING_CACHE_TTL_SECONDS", 600),

		BOWSimilarityThreshold: mustEnvFloat("BOW_SIMILARITY_THRESHOLD", 0.1),
		BOWTopK:                mustEnvInt("BOW_TOP_K", 20),
		BOWTopM:                mustEnvInt("BOW_TOP_M", 5),

		ContextExcerptChars:   mustEnvInt("CONTEXT_EXCERPT_CHARS", 1000),
		ConfirmationMaxTokens: mustEnvInt("CONFIRMATION_MAX_TOKENS", 1000),
		NameMatchCutoff:       mustEnvFloat("NAME_MATCH_CUTOFF", 0.8),

		BucketThresholdsPath: mustEnv("BUCKET_THRESHOLDS_PATH", ""),
		Keywords:             mustEnvList("CLIMATE_KEYWORDS", defaultKeywords),

		FrontendEnabled:  mustEnvBool("FRONTEND_ENABLED", false),
		FrontendUsername: mustEnv("FRONTEND_USERNAME", ""),
		FrontendPassword: mustEnv("FRONTEND_PASSWORD", ""),

		APIRateLimitRPS:      mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:    mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:       mustEnvInt("API_MAX_IN_FLIGHT", 8),
		APIRetryAfterSeconds: mustEnvInt("API_RETRY_AFTER_SECONDS", 2),
	}
}

// LoadBucketThresholds reads the YAML override named by
// BucketThresholdsPath. A nil result means no override is configured.
func (c Config) LoadBucketThresholds() (*BucketThresholds, error) {
	if c.BucketThresholdsPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.BucketThresholdsPath)
	if err != nil {
		return nil, fmt.Errorf("read bucket thresholds: %w", err)
	}
	var thresholds BucketThresholds
	if err := yaml.Unmarshal(raw, &thresholds); err != nil {
		return nil, fmt.Errorf("parse bucket thresholds: %w", err)
	}
	return &thresholds, nil
}

var defaultKeywords = []string{
	"climate",
	"emission",
	"emissions",
	"carbon",
	"greenhouse",
	"ghg",
	"net zero",
	"net-zero",
	"decarbonisation",
	"decarbonization",
	"renewable",
	"sustainability",
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
