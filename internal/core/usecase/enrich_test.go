package usecase

import (
	"testing"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

func TestEnrichSelectionsJoinsCorpusAndEmissions(t *testing.T) {
	corpus := &corpusFake{
		entries: []domain.ClauseEntry{
			{Name: "Carbon Reporting", ChildName: "Carbon Reporting (Supplier)", DisplayURL: "https://clauses.example/carbon-reporting"},
		},
		emissions: map[string][]string{
			"Carbon Reporting": {"scope 1", "scope 2"},
		},
	}

	selections := []domain.Selection{
		{ClauseName: "Carbon Reporting.txt", Reasoning: "fits the disclosure obligations"},
	}

	matches := enrichSelections(selections, corpus)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Name != "Carbon Reporting" {
		t.Fatalf("suffix should be stripped, got %q", m.Name)
	}
	if m.ChildName != "Carbon Reporting (Supplier)" {
		t.Fatalf("unexpected child name %q", m.ChildName)
	}
	if m.ClauseURL != "https://clauses.example/carbon-reporting" {
		t.Fatalf("unexpected clause url %q", m.ClauseURL)
	}
	if m.Reason != "fits the disclosure obligations" {
		t.Fatalf("unexpected reason %q", m.Reason)
	}
	if len(m.EmissionsSources) != 2 {
		t.Fatalf("unexpected emission sources %v", m.EmissionsSources)
	}
}

func TestEnrichSelectionsUnknownClauseKeepsDefaults(t *testing.T) {
	matches := enrichSelections(
		[]domain.Selection{{ClauseName: "Unknown Clause", Reasoning: "r"}},
		&corpusFake{},
	)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.ChildName != "" || m.ClauseURL != "" {
		t.Fatalf("unknown clause should not gain corpus fields: %+v", m)
	}
	if m.EmissionsSources == nil || len(m.EmissionsSources) != 0 {
		t.Fatalf("emission sources must be empty, never nil: %v", m.EmissionsSources)
	}
}

func TestEnrichSelectionsEmptyInput(t *testing.T) {
	matches := enrichSelections(nil, &corpusFake{})
	if matches == nil {
		t.Fatal("matches must be empty, never nil")
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}
