// Package corpus loads the static clause corpus: clause texts from a
// directory, cluster/relation tags from an xlsx workbook and the emission
// reference table from csv. Everything is loaded once at process start and
// read-only afterwards.
package corpus

import (
	"sort"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

// Index is the immutable clause table keyed by clause name.
type Index struct {
	entries   map[string]domain.ClauseEntry
	names     []string
	byCluster map[int][]string
	emissions map[string][]string
}

func (ix *Index) Get(name string) (domain.ClauseEntry, bool) {
	entry, ok := ix.entries[name]
	return entry, ok
}

// Names returns clause names in stable sorted order.
func (ix *Index) Names() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

func (ix *Index) ByCluster(clusterID int) []domain.ClauseEntry {
	names := ix.byCluster[clusterID]
	out := make([]domain.ClauseEntry, 0, len(names))
	for _, name := range names {
		out = append(out, ix.entries[name])
	}
	return out
}

func (ix *Index) All() []domain.ClauseEntry {
	out := make([]domain.ClauseEntry, 0, len(ix.names))
	for _, name := range ix.names {
		out = append(out, ix.entries[name])
	}
	return out
}

func (ix *Index) EmissionSources(name string) []string {
	sources := ix.emissions[name]
	out := make([]string, len(sources))
	copy(out, sources)
	return out
}

func (ix *Index) Len() int {
	return len(ix.names)
}

func newIndex(entries map[string]domain.ClauseEntry, emissions map[string][]string) *Index {
	names := make([]string, 0, len(entries))
	byCluster := make(map[int][]string)
	for name, entry := range entries {
		names = append(names, name)
		if entry.ClusterID >= 0 {
			byCluster[entry.ClusterID] = append(byCluster[entry.ClusterID], name)
		}
	}
	sort.Strings(names)
	for id := range byCluster {
		sort.Strings(byCluster[id])
	}
	if emissions == nil {
		emissions = map[string][]string{}
	}
	return &Index{
		entries:   entries,
		names:     names,
		byCluster: byCluster,
		emissions: emissions,
	}
}
