package ports

import (
	"context"

	"RedditPulse/internal/domain"
)

// ItemSource pulls raw posts/comments for one community. A partial slice may
// be returned alongside domain.ErrFetchExhausted when retries ran out; the
// caller keeps what was yielded.
type ItemSource interface {
	Fetch(ctx context.Context, community domain.Community) ([]domain.RawItem, error)
}

// LexiconScorer produces a rule/lexicon-based sentiment score in [-1, 1].
// Deterministic for a given text; never fails.
type LexiconScorer interface {
	Score(text string) float64
}

// SentimentClassifier runs the trained model over one text. May fail per
// call; callers fall back to the lexicon score alone.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// TopicModel fits a topic model over a community corpus and assigns topics
// per document. Fit returns an opaque model handle so concurrent fits for
// different communities do not interfere.
type TopicModel interface {
	Fit(ctx context.Context, docs []string) (string, error)
	Assign(ctx context.Context, model, text string) (int, error)
}

// EntityRecognizer extracts named-entity spans from text.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.Entity, error)
}

// EngagementPredictor scores a feature matrix, one predicted engagement
// value per row. Batch interface: called once per community after its
// stream ends, never per item.
type EngagementPredictor interface {
	Predict(ctx context.Context, features [][]float64) ([]float64, error)
}

// ReportArchive persists finalized reports and serves per-community
// baselines from prior runs.
type ReportArchive interface {
	Save(ctx context.Context, report domain.Report) error
	LastMeans(ctx context.Context, communities []string) (map[string]float64, error)
}
