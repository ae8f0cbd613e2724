package chunking

import (
	"strings"
	"testing"
)

func TestSplitTerminalPunctuation(t *testing.T) {
	splitter := NewSentenceSplitter(1)

	got := splitter.Split("First sentence. Second one! Third thing?")
	want := []string{"First sentence.", "Second one!", "Third thing?"}
	if len(got) != len(want) {
		t.Fatalf("Split() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitBlankLineEndsSentence(t *testing.T) {
	splitter := NewSentenceSplitter(1)

	got := splitter.Split("Heading without punctuation\n\nBody paragraph here.")
	if len(got) != 2 {
		t.Fatalf("Split() = %v, want 2 sentences", got)
	}
	if got[0] != "Heading without punctuation" {
		t.Fatalf("first sentence = %q", got[0])
	}
}

func TestSplitMergesShortFragments(t *testing.T) {
	splitter := NewSentenceSplitter(12)

	got := splitter.Split("This is a reasonably long sentence. No. Another complete sentence follows here.")
	if len(got) != 2 {
		t.Fatalf("Split() = %v, want the short fragment merged", got)
	}
	if !strings.HasSuffix(got[0], "No.") {
		t.Fatalf("short fragment should merge into its predecessor, got %q", got[0])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	splitter := NewSentenceSplitter(0)
	if got := splitter.Split("   \n \t "); got != nil {
		t.Fatalf("Split() = %v, want nil", got)
	}
}

func TestSplitTrailingTextWithoutPunctuation(t *testing.T) {
	splitter := NewSentenceSplitter(1)
	got := splitter.Split("Complete sentence. trailing fragment without period")
	if len(got) != 2 {
		t.Fatalf("Split() = %v, want trailing fragment kept", got)
	}
}

func TestNewSentenceSplitterDefaultsMinRunes(t *testing.T) {
	if s := NewSentenceSplitter(0); s.MinRunes != 12 {
		t.Fatalf("default MinRunes = %d, want 12", s.MinRunes)
	}
}
