package domain

// Bucket is the ordinal exposure category summarizing how much
// climate-relevant language a document contains.
type Bucket string

const (
	BucketUnlikely   Bucket = "unlikely"
	BucketPossible   Bucket = "possible"
	BucketLikely     Bucket = "likely"
	BucketVeryLikely Bucket = "very likely"
)

// BucketLabels maps the stable cat0..cat3 keys to their display labels.
func BucketLabels() map[string]string {
	return map[string]string{
		"cat0": string(BucketUnlikely),
		"cat1": string(BucketPossible),
		"cat2": string(BucketLikely),
		"cat3": string(BucketVeryLikely),
	}
}

// SentencePrediction is the scorer's verdict for one sentence plus the local
// keyword-match flag.
type SentencePrediction struct {
	Sentence     string
	Relevant     bool
	KeywordMatch bool
}

// Flagged reports whether the sentence counts toward exposure and gets
// highlighted in the rendered output.
func (p SentencePrediction) Flagged() bool {
	return p.Relevant || p.KeywordMatch
}

// ExposureReport is the /process response payload.
type ExposureReport struct {
	Classification       Bucket            `json:"classification"`
	HighlightedOutputURL string            `json:"highlighted_output_url"`
	BucketLabels         map[string]string `json:"bucket_labels"`
}
