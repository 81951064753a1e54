package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"RedditPulse/internal/domain"
	"RedditPulse/internal/ports"
)

// Client talks to an external NLP inference service for classification,
// topic modeling, entity recognition, and engagement prediction.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SentimentClassifier = (*Client)(nil)
var _ ports.TopicModel = (*Client)(nil)
var _ ports.EntityRecognizer = (*Client)(nil)
var _ ports.EngagementPredictor = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Classify sends one text for sentiment/emotion/sarcasm scoring.
func (c *Client) Classify(ctx context.Context, text string) (domain.Classification, error) {
	var resp domain.Classification
	if err := c.post(ctx, "/classify", map[string]any{"text": text}, &resp); err != nil {
		return domain.Classification{}, err
	}
	return resp, nil
}

// Fit trains a topic model over the corpus and returns its handle.
func (c *Client) Fit(ctx context.Context, docs []string) (string, error) {
	var resp struct {
		Model string `json:"model"`
	}
	if err := c.post(ctx, "/topics/fit", map[string]any{"documents": docs}, &resp); err != nil {
		return "", err
	}
	if resp.Model == "" {
		return "", fmt.Errorf("topic fit returned empty model handle")
	}
	return resp.Model, nil
}

// Assign places one document under a previously fit topic model.
func (c *Client) Assign(ctx context.Context, model, text string) (int, error) {
	var resp struct {
		Topic int `json:"topic"`
	}
	payload := map[string]any{"model": model, "text": text}
	if err := c.post(ctx, "/topics/assign", payload, &resp); err != nil {
		return domain.TopicUnassigned, err
	}
	return resp.Topic, nil
}

// Recognize extracts named-entity spans from one text.
func (c *Client) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	var resp struct {
		Entities []domain.Entity `json:"entities"`
	}
	if err := c.post(ctx, "/entities", map[string]any{"text": text}, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// Predict scores a feature matrix, one engagement value per row.
func (c *Client) Predict(ctx context.Context, features [][]float64) ([]float64, error) {
	var resp struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := c.post(ctx, "/engagement", map[string]any{"features": features}, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if v == nil {
		if err := resp.Body.Close(); err != nil {
			return fmt.Errorf("close response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
