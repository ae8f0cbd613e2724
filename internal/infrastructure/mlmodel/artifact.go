// Package mlmodel loads the serialized clustering artifact: the
// dimensionality-reduction projection and the cluster centroids exported
// from the training pipeline. The learning algorithm behind the artifact is
// out of scope; only the assign decision rule lives here.
package mlmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Artifact is the on-disk layout of the versioned model file.
type Artifact struct {
	Version    string      `json:"version"`
	InputDim   int         `json:"input_dim"`
	Projection [][]float64 `json:"projection"`
	Centroids  [][]float64 `json:"centroids"`
	ClusterIDs []int       `json:"cluster_ids"`
}

// ClusterModel assigns embeddings to cluster labels via nearest centroid in
// the projected space. The projection matrix never leaves this package.
type ClusterModel struct {
	version    string
	inputDim   int
	projection [][]float64
	centroids  [][]float64
	clusterIDs []int
}

// LoadClusterModel reads and validates the artifact. Failure here aborts
// startup.
func LoadClusterModel(path string) (*ClusterModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	return NewClusterModel(artifact)
}

func NewClusterModel(artifact Artifact) (*ClusterModel, error) {
	if len(artifact.Projection) == 0 || len(artifact.Centroids) == 0 {
		return nil, fmt.Errorf("model artifact %q is incomplete", artifact.Version)
	}
	if artifact.InputDim <= 0 {
		return nil, fmt.Errorf("model artifact %q has no input dimension", artifact.Version)
	}

	projectedDim := len(artifact.Projection)
	for i, row := range artifact.Projection {
		if len(row) != artifact.InputDim {
			return nil, fmt.Errorf("projection row %d has %d columns, want %d", i, len(row), artifact.InputDim)
		}
	}
	for i, centroid := range artifact.Centroids {
		if len(centroid) != projectedDim {
			return nil, fmt.Errorf("centroid %d has %d dimensions, want %d", i, len(centroid), projectedDim)
		}
	}

	clusterIDs := artifact.ClusterIDs
	if len(clusterIDs) == 0 {
		clusterIDs = make([]int, len(artifact.Centroids))
		for i := range clusterIDs {
			clusterIDs[i] = i
		}
	}
	if len(clusterIDs) != len(artifact.Centroids) {
		return nil, fmt.Errorf("%d cluster ids for %d centroids", len(clusterIDs), len(artifact.Centroids))
	}

	return &ClusterModel{
		version:    artifact.Version,
		inputDim:   artifact.InputDim,
		projection: artifact.Projection,
		centroids:  artifact.Centroids,
		clusterIDs: clusterIDs,
	}, nil
}

func (m *ClusterModel) Version() string {
	return m.version
}

// Assign projects the embedding and returns the nearest centroid's cluster
// id. Degenerate input (wrong dimension, zero vector) reports no label.
func (m *ClusterModel) Assign(vector []float32) (int, bool) {
	if len(vector) != m.inputDim || isZero(vector) {
		return 0, false
	}

	projected := m.project(vector)
	best := -1
	bestDist := math.Inf(1)
	for i, centroid := range m.centroids {
		dist := squaredDistance(projected, centroid)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return m.clusterIDs[best], true
}

func (m *ClusterModel) project(vector []float32) []float64 {
	out := make([]float64, len(m.projection))
	for i, row := range m.projection {
		var sum float64
		for j, w := range row {
			sum += w * float64(vector[j])
		}
		out[i] = sum
	}
	return out
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func isZero(vector []float32) bool {
	for _, v := range vector {
		if v != 0 {
			return false
		}
	}
	return true
}
