package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// bowMatch is one corpus document that cleared the lexical similarity gate.
type bowMatch struct {
	name  string
	text  string
	score float64
}

// bowTopSimilar ranks corpus documents by term-frequency cosine similarity
// against the query text, drops everything below threshold and keeps the
// top-k as the first-stage candidate pool.
func bowTopSimilar(queryText string, names, texts []string, threshold float64, k int) []bowMatch {
	if k <= 0 {
		k = 20
	}

	queryTF := termFrequencies(queryText)
	matches := make([]bowMatch, 0, len(texts))
	for i, text := range texts {
		score := cosineTF(queryTF, termFrequencies(text))
		if score <= threshold {
			continue
		}
		matches = append(matches, bowMatch{name: names[i], text: text, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// rerankByEmbedding re-scores the lexical pool against the query embedding
// and keeps the top-m by cosine similarity.
func rerankByEmbedding(queryVector []float32, pool []bowMatch, poolVectors [][]float32, m int) []bowMatch {
	if m <= 0 {
		m = 5
	}

	rescored := make([]bowMatch, 0, len(pool))
	for i, match := range pool {
		if i >= len(poolVectors) {
			break
		}
		match.score = cosine32(queryVector, poolVectors[i])
		rescored = append(rescored, match)
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		if rescored[i].score != rescored[j].score {
			return rescored[i].score > rescored[j].score
		}
		return rescored[i].name < rescored[j].name
	})

	if len(rescored) > m {
		rescored = rescored[:m]
	}
	return rescored
}

func termFrequencies(s string) map[string]float64 {
	tf := make(map[string]float64, 64)
	for _, token := range tokenizeAlphaNum(s) {
		tf[token]++
	}
	return tf
}

func cosineTF(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for token, weight := range a {
		normA += weight * weight
		if other, ok := b[token]; ok {
			dot += weight * other
		}
	}
	for _, weight := range b {
		normB += weight * weight
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func cosine32(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
