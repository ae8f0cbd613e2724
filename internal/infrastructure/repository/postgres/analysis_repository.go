package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

// AnalysisRepository persists one row per classification run.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS contract_analyses (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	filename TEXT NOT NULL,
	classification TEXT NOT NULL,
	relevant_sentences INT NOT NULL DEFAULT 0,
	total_sentences INT NOT NULL DEFAULT 0,
	output_url TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contract_analyses_fingerprint ON contract_analyses(fingerprint);
CREATE INDEX IF NOT EXISTS idx_contract_analyses_created_at ON contract_analyses(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) Record(ctx context.Context, record *domain.AnalysisRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO contract_analyses (
	id, fingerprint, filename, classification, relevant_sentences, total_sentences, output_url, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		record.ID, record.Fingerprint, record.Filename, string(record.Classification),
		record.RelevantSentences, record.TotalSentences, record.OutputURL, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis record: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, fingerprint, filename, classification, relevant_sentences, total_sentences, output_url, created_at
FROM contract_analyses
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		var record domain.AnalysisRecord
		var classification string
		if err := rows.Scan(
			&record.ID, &record.Fingerprint, &record.Filename, &classification,
			&record.RelevantSentences, &record.TotalSentences, &record.OutputURL, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		record.Classification = domain.Bucket(classification)
		records = append(records, record)
	}
	return records, rows.Err()
}
