package domain

// Document is the per-request view of an uploaded contract. It lives for the
// duration of a single request; only its embedding may outlive it via the
// embedding cache.
type Document struct {
	Filename    string
	Fingerprint string
	Raw         []byte
	Text        string
}

// CachedEmbedding pairs a precomputed document embedding with the normalized
// text it was computed from.
type CachedEmbedding struct {
	Vector []float32
	Text   string
}
