package usecase

import (
	"strings"

	"github.com/provoco/clauseadvisor/internal/core/domain"
	"github.com/provoco/clauseadvisor/internal/core/ports"
)

// enrichSelections joins accepted selections against the corpus index and
// the emission reference table. A selection whose clause has no emission
// labels gets an empty set, never an error.
func enrichSelections(selections []domain.Selection, corpus ports.CorpusIndex) []domain.ClauseMatch {
	matches := make([]domain.ClauseMatch, 0, len(selections))
	for _, selection := range selections {
		name := strings.TrimSuffix(selection.ClauseName, domain.ClauseFileSuffix)

		match := domain.ClauseMatch{
			Name:             name,
			Reason:           selection.Reasoning,
			EmissionsSources: []string{},
		}
		if entry, ok := corpus.Get(name); ok {
			match.ChildName = entry.ChildName
			match.ClauseURL = entry.DisplayURL
		}
		if sources := corpus.EmissionSources(name); len(sources) > 0 {
			match.EmissionsSources = sources
		}
		matches = append(matches, match)
	}
	return matches
}
