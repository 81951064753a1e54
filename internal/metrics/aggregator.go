package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"RedditPulse/internal/domain"
	"RedditPulse/internal/ports"
)

// Aggregator folds analyzed items into running per-community statistics.
// The fold is order-independent: the same multiset of items yields
// numerically equivalent aggregates regardless of arrival order, modulo
// floating-point summation order. Owned by a single community pipeline;
// not safe for concurrent use.
type Aggregator struct {
	community string
	logger    *slog.Logger

	count      int
	rejected   int
	duplicates int
	partial    int

	sentiment moments

	labels   map[string]int
	emotions map[string]int
	topics   map[int]int
	entities map[string]int

	// Observed engagement and feature rows retained for the batch
	// prediction phase after the stream ends.
	scores   []float64
	comments []float64
	features [][]float64

	predicted      bool
	predictedDelta float64

	fetchTruncated bool

	finalized *domain.CommunityMetrics
}

// NewAggregator builds an empty aggregate for one community.
func NewAggregator(community string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		community: community,
		logger:    logger,
		labels:    map[string]int{},
		emotions:  map[string]int{},
		topics:    map[int]int{},
		entities:  map[string]int{},
	}
}

// Update folds one analyzed item into the running aggregates.
func (a *Aggregator) Update(item domain.AnalyzedItem) {
	a.count++
	a.sentiment.add(item.SentimentScore)

	a.labels[item.SentimentLabel]++
	a.emotions[item.EmotionLabel]++
	a.topics[item.TopicID]++
	for _, ent := range item.Entities {
		a.entities[fmt.Sprintf("%s (%s)", ent.Text, ent.Label)]++
	}

	if item.Partial {
		a.partial++
	}

	a.scores = append(a.scores, float64(item.Score))
	a.comments = append(a.comments, float64(item.NumComments))
	a.features = append(a.features, item.Features)
}

// RecordRejected counts a normalization rejection. Rejected items never
// enter any distribution total.
func (a *Aggregator) RecordRejected() { a.rejected++ }

// RecordDuplicate counts a dropped duplicate id.
func (a *Aggregator) RecordDuplicate() { a.duplicates++ }

// MarkFetchTruncated records that retries were exhausted and the community
// proceeded with partial data.
func (a *Aggregator) MarkFetchTruncated() { a.fetchTruncated = true }

// ScorePredictions runs the batch engagement predictor over the retained
// feature matrix and records the mean absolute observed-vs-predicted delta.
// Predictor failure is absorbed: the delta metric is simply absent.
func (a *Aggregator) ScorePredictions(ctx context.Context, predictor ports.EngagementPredictor) {
	if predictor == nil || a.count == 0 || a.finalized != nil {
		return
	}

	preds, err := predictor.Predict(ctx, a.features)
	if err != nil {
		a.debug("engagement prediction failed", "error", err)
		return
	}
	if len(preds) != len(a.scores) {
		a.debug("engagement prediction row mismatch", "want", len(a.scores), "got", len(preds))
		return
	}

	var sum float64
	for i, pred := range preds {
		sum += math.Abs(pred - a.scores[i])
	}
	a.predicted = true
	a.predictedDelta = sum / float64(len(preds))
}

// Finalize freezes the aggregate into a read-only report fragment. May be
// called only after the community's item stream is exhausted; idempotent,
// repeat calls return the identical snapshot.
func (a *Aggregator) Finalize() domain.CommunityMetrics {
	if a.finalized != nil {
		return *a.finalized
	}

	m := domain.CommunityMetrics{
		Community:       a.community,
		Items:           a.count,
		Rejected:        a.rejected,
		Duplicates:      a.duplicates,
		Partial:         a.partial,
		SentimentLabels: a.labels,
		Emotions:        a.emotions,
		Topics:          a.topics,
		Entities:        a.entities,
		Predicted:       a.predicted,
		PredictedDelta:  a.predictedDelta,
		FetchTruncated:  a.fetchTruncated,
		Empty:           a.count == 0,
	}

	if a.count > 0 {
		m.SentimentMean = a.sentiment.mean
		m.SentimentStdDev = math.Sqrt(a.sentiment.variance())
		m.SentimentSkew = a.sentiment.skewness()
		m.SentimentKurtosis = a.sentiment.kurtosis()

		var sum, max float64
		for i, s := range a.scores {
			sum += s
			if i == 0 || s > max {
				max = s
			}
		}
		m.EngagementMean = sum / float64(a.count)
		m.EngagementMax = max
		m.EngagementScore = engagementScore(a.scores, a.comments)
	}

	a.finalized = &m
	return m
}

// engagementScore min-max normalizes upvotes and comment counts separately
// and averages their equal-weight blend across items.
func engagementScore(scores, comments []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	normScores := minMaxNormalize(scores)
	normComments := minMaxNormalize(comments)

	var sum float64
	for i := range normScores {
		sum += 0.5*normScores[i] + 0.5*normComments[i]
	}
	return sum / float64(len(normScores))
}

func minMaxNormalize(values []float64) []float64 {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(values))
	if max == min {
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
