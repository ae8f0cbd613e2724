package domain

import "time"

// AnalysisRecord is the persisted trace of one classification run.
type AnalysisRecord struct {
	ID                string    `json:"id"`
	Fingerprint       string    `json:"fingerprint"`
	Filename          string    `json:"filename"`
	Classification    Bucket    `json:"classification"`
	RelevantSentences int       `json:"relevant_sentences"`
	TotalSentences    int       `json:"total_sentences"`
	OutputURL         string    `json:"output_url"`
	CreatedAt         time.Time `json:"created_at"`
}
