package report

import (
	"sort"
	"time"

	"RedditPulse/internal/domain"
)

// Assembler shapes finalized per-community metrics into the run Report.
// Pure aggregation; no analysis logic.
type Assembler struct{}

// NewAssembler constructs the shaping component.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the immutable Report. baselines maps community name to the
// previous archived run's sentiment mean; nil disables delta reporting.
func (a *Assembler) Assemble(
	runID string,
	generatedAt time.Time,
	timeframe domain.Timeframe,
	fragments []domain.CommunityMetrics,
	artifacts []string,
	baselines map[string]float64,
) domain.Report {
	communities := make(map[string]domain.CommunityMetrics, len(fragments))
	for _, frag := range fragments {
		communities[frag.Community] = frag
	}

	summary := domain.RunSummary{}
	for _, frag := range fragments {
		summary.TotalItems += frag.Items
		summary.TotalRejected += frag.Rejected
	}
	summary.MostPositive, summary.MostNegative = extremes(fragments)

	if len(baselines) > 0 {
		deltas := map[string]float64{}
		for _, frag := range fragments {
			if base, ok := baselines[frag.Community]; ok && !frag.Empty {
				deltas[frag.Community] = frag.SentimentMean - base
			}
		}
		if len(deltas) > 0 {
			summary.MeanDeltas = deltas
		}
	}

	return domain.Report{
		RunID:          runID,
		GeneratedAt:    generatedAt,
		Timeframe:      timeframe,
		Communities:    communities,
		Summary:        summary,
		Visualizations: artifacts,
	}
}

// extremes picks the most positive and most negative communities by
// finalized mean. Empty communities do not compete; ties break by lexical
// community-name order for determinism.
func extremes(fragments []domain.CommunityMetrics) (mostPositive, mostNegative string) {
	candidates := make([]domain.CommunityMetrics, 0, len(fragments))
	for _, frag := range fragments {
		if !frag.Empty {
			candidates = append(candidates, frag)
		}
	}
	if len(candidates) == 0 {
		return "", ""
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Community < candidates[j].Community
	})

	best, worst := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c.SentimentMean > best.SentimentMean {
			best = c
		}
		if c.SentimentMean < worst.SentimentMean {
			worst = c
		}
	}
	return best.Community, worst.Community
}
