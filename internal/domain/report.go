package domain

import "time"

// CommunityMetrics is the finalized aggregate for one community. Produced
// once by the aggregator's Finalize and read-only afterwards.
type CommunityMetrics struct {
	Community string `json:"community"`

	Items      int `json:"items"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
	Partial    int `json:"partial"`

	SentimentMean     float64        `json:"sentiment_mean"`
	SentimentStdDev   float64        `json:"sentiment_std_dev"`
	SentimentSkew     float64        `json:"sentiment_skew"`
	SentimentKurtosis float64        `json:"sentiment_kurtosis"`
	SentimentLabels   map[string]int `json:"sentiment_labels"`

	Emotions map[string]int `json:"emotions"`
	Topics   map[int]int    `json:"topics"`
	Entities map[string]int `json:"entities"`

	EngagementMean  float64 `json:"engagement_mean"`
	EngagementMax   float64 `json:"engagement_max"`
	EngagementScore float64 `json:"engagement_score"`

	// Mean absolute delta between observed and predicted engagement.
	// Zero with Predicted=false when the batch predictor was unavailable.
	PredictedDelta float64 `json:"predicted_delta"`
	Predicted      bool    `json:"predicted"`

	// FetchTruncated records that retries were exhausted and the community
	// proceeded with partial data.
	FetchTruncated bool `json:"fetch_truncated"`

	// Empty marks a community that yielded zero analyzable items; its
	// metrics are emitted as zeros rather than omitted.
	Empty bool `json:"empty"`
}

// RunSummary aggregates across communities.
type RunSummary struct {
	TotalItems    int    `json:"total_items"`
	TotalRejected int    `json:"total_rejected"`
	MostPositive  string `json:"most_positive"`
	MostNegative  string `json:"most_negative"`

	// MeanDeltas is the change in sentiment mean versus the previous
	// archived run, keyed by community. Absent communities had no baseline.
	MeanDeltas map[string]float64 `json:"mean_deltas,omitempty"`
}

// Report is the immutable final output of a run.
type Report struct {
	RunID          string                      `json:"run_id"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	Timeframe      Timeframe                   `json:"timeframe"`
	Communities    map[string]CommunityMetrics `json:"communities"`
	Summary        RunSummary                  `json:"summary"`
	Visualizations []string                    `json:"visualizations"`
}
