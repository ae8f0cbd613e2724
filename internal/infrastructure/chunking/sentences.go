package chunking

import "strings"

// SentenceSplitter breaks extracted contract text into sentences for the
// sentence-level classifier. Splitting is intentionally simple: terminal
// punctuation and blank lines end a sentence, fragments below MinRunes are
// merged into their neighbor.
type SentenceSplitter struct {
	MinRunes int
}

func NewSentenceSplitter(minRunes int) *SentenceSplitter {
	if minRunes <= 0 {
		minRunes = 12
	}
	return &SentenceSplitter{MinRunes: minRunes}
}

func (s *SentenceSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var raw []string
	var b strings.Builder
	flush := func() {
		sentence := strings.TrimSpace(b.String())
		if sentence != "" {
			raw = append(raw, sentence)
		}
		b.Reset()
	}

	prevNewline := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			flush()
			prevNewline = false
		case '\n':
			if prevNewline {
				flush()
			}
			b.WriteRune(' ')
			prevNewline = true
		default:
			b.WriteRune(r)
			prevNewline = false
		}
	}
	flush()

	return s.mergeShort(raw)
}

func (s *SentenceSplitter) mergeShort(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if len(out) > 0 && len([]rune(sentence)) < s.MinRunes {
			out[len(out)-1] = out[len(out)-1] + " " + sentence
			continue
		}
		out = append(out, sentence)
	}
	return out
}
