package domain

// ClauseFileSuffix is the suffix convention under which corpus clauses are
// stored and referenced during name validation.
const ClauseFileSuffix = ".txt"

// ClauseEntry is one immutable record of the clause corpus, keyed by Name.
type ClauseEntry struct {
	Name       string
	Text       string
	ClusterID  int
	ParentName string
	ChildName  string
	DisplayURL string
}

type MatchMethod string

const (
	MatchedByCluster MatchMethod = "cluster"
	MatchedByBOW     MatchMethod = "bow"
)

// Candidate is a corpus clause proposed to the selection step by one of the
// two retrieval strategies. The same clause may appear once per strategy;
// both provenance tags are meaningful to selection, so no dedup happens.
type Candidate struct {
	SourceName string
	Text       string
	MatchedBy  MatchMethod
}

// Selection is a single clause choice parsed from the completion reply.
type Selection struct {
	ClauseName string `json:"Clause Name"`
	Reasoning  string `json:"Reasoning"`
}

// ClauseMatch is one enriched entry of the recommendation response.
type ClauseMatch struct {
	Name             string   `json:"name"`
	ChildName        string   `json:"child_name"`
	ClauseURL        string   `json:"clause_url"`
	Reason           string   `json:"reason"`
	EmissionsSources []string `json:"emissions_sources"`
}

// Recommendation is the /find_clauses response payload. Matches is empty,
// never nil, on unrecoverable parse failure.
type Recommendation struct {
	Matches []ClauseMatch `json:"matches"`
}
