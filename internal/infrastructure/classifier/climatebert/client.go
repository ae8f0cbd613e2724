// Package climatebert adapts the pretrained sentence classifier and the
// document embedder behind their serving endpoint. Both are opaque scoring
// functions; only their input/output contracts live here.
package climatebert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/provoco/clauseadvisor/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	scoreModel string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, scoreModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		scoreModel: scoreModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}

type Scorer struct {
	client *Client
}

func NewScorer(client *Client) *Scorer {
	return &Scorer{client: client}
}

// Score labels each sentence as climate-relevant or not.
func (s *Scorer) Score(ctx context.Context, sentences []string) ([]bool, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model":  s.client.scoreModel,
		"inputs": sentences,
	}

	var response struct {
		Predictions []int `json:"predictions"`
	}
	if err := s.client.call(ctx, "/api/classify", request, &response, "classify"); err != nil {
		return nil, err
	}
	if len(response.Predictions) != len(sentences) {
		return nil, fmt.Errorf("predictions/sentences mismatch: %d/%d", len(response.Predictions), len(sentences))
	}

	out := make([]bool, len(response.Predictions))
	for i, p := range response.Predictions {
		out[i] = p == 1
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, path string, payload any, out any, operation string) error {
	fn := func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "climatebert."+operation, fn, classifyModelError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
