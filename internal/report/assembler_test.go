package report

import (
	"math"
	"testing"
	"time"

	"RedditPulse/internal/domain"
)

func fragment(name string, mean float64, items, rejected int) domain.CommunityMetrics {
	return domain.CommunityMetrics{
		Community:     name,
		SentimentMean: mean,
		Items:         items,
		Rejected:      rejected,
		Empty:         items == 0,
	}
}

func TestAssembleSummaryExtremes(t *testing.T) {
	t.Parallel()

	a := NewAssembler()
	rep := a.Assemble("run-1", time.Now(), domain.TimeframeWeek, []domain.CommunityMetrics{
		fragment("stocks", 0.2, 10, 1),
		fragment("wallstreetbets", -0.5, 20, 3),
		fragment("investing", 0.6, 5, 0),
	}, nil, nil)

	if rep.Summary.MostPositive != "investing" {
		t.Fatalf("most positive: %s", rep.Summary.MostPositive)
	}
	if rep.Summary.MostNegative != "wallstreetbets" {
		t.Fatalf("most negative: %s", rep.Summary.MostNegative)
	}
	if rep.Summary.TotalItems != 35 || rep.Summary.TotalRejected != 4 {
		t.Fatalf("totals: %d/%d", rep.Summary.TotalItems, rep.Summary.TotalRejected)
	}
}

func TestAssembleTiesBreakLexically(t *testing.T) {
	t.Parallel()

	a := NewAssembler()
	rep := a.Assemble("run-1", time.Now(), domain.TimeframeWeek, []domain.CommunityMetrics{
		fragment("zebra", 0.4, 3, 0),
		fragment("apple", 0.4, 3, 0),
	}, nil, nil)

	if rep.Summary.MostPositive != "apple" {
		t.Fatalf("tie should break to lexically first name, got %s", rep.Summary.MostPositive)
	}
	if rep.Summary.MostNegative != "apple" {
		t.Fatalf("tie should break to lexically first name, got %s", rep.Summary.MostNegative)
	}
}

func TestAssembleEmptyCommunitiesDoNotCompete(t *testing.T) {
	t.Parallel()

	a := NewAssembler()
	rep := a.Assemble("run-1", time.Now(), domain.TimeframeWeek, []domain.CommunityMetrics{
		fragment("ghost", 0, 0, 0),
		fragment("alive", -0.1, 2, 0),
	}, nil, nil)

	if rep.Summary.MostPositive != "alive" || rep.Summary.MostNegative != "alive" {
		t.Fatalf("empty community must not win: %+v", rep.Summary)
	}

	if _, present := rep.Communities["ghost"]; !present {
		t.Fatalf("empty community metrics must still be emitted")
	}
}

func TestAssembleAllEmpty(t *testing.T) {
	t.Parallel()

	a := NewAssembler()
	rep := a.Assemble("run-1", time.Now(), domain.TimeframeWeek, []domain.CommunityMetrics{
		fragment("a", 0, 0, 0),
		fragment("b", 0, 0, 0),
	}, nil, nil)

	if rep.Summary.MostPositive != "" || rep.Summary.MostNegative != "" {
		t.Fatalf("no extremes expected for an all-empty run")
	}
}

func TestAssembleBaselineDeltas(t *testing.T) {
	t.Parallel()

	a := NewAssembler()
	rep := a.Assemble("run-1", time.Now(), domain.TimeframeWeek, []domain.CommunityMetrics{
		fragment("stocks", 0.3, 4, 0),
		fragment("ghost", 0, 0, 0),
	}, nil, map[string]float64{"stocks": 0.1, "ghost": 0.5})

	delta, ok := rep.Summary.MeanDeltas["stocks"]
	if !ok || math.Abs(delta-0.2) > 1e-12 {
		t.Fatalf("expected stocks delta 0.2, got %v (present %v)", delta, ok)
	}
	if _, ok := rep.Summary.MeanDeltas["ghost"]; ok {
		t.Fatalf("empty community must not report a delta")
	}
}

func TestAssembleCarriesArtifacts(t *testing.T) {
	t.Parallel()

	a := NewAssembler()
	artifacts := []string{"sentiment_distribution.png", "emotion_distribution.png"}
	rep := a.Assemble("run-1", time.Now(), domain.TimeframeWeek,
		[]domain.CommunityMetrics{fragment("stocks", 0.1, 1, 0)}, artifacts, nil)

	if len(rep.Visualizations) != 2 || rep.Visualizations[0] != "sentiment_distribution.png" {
		t.Fatalf("artifact references lost: %v", rep.Visualizations)
	}
	if rep.RunID != "run-1" || rep.Timeframe != domain.TimeframeWeek {
		t.Fatalf("report identity fields lost")
	}
}
