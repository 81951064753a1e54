package usecase

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"RedditPulse/internal/analysis"
	"RedditPulse/internal/domain"
	"RedditPulse/internal/metrics"
	"RedditPulse/internal/normalize"
	"RedditPulse/internal/ports"
)

// PipelineDeps wires all collaborators into the collection pipeline.
type PipelineDeps struct {
	Source     ports.ItemSource
	Normalizer *normalize.Normalizer
	Analyzer   *analysis.Adapter
	Predictor  ports.EngagementPredictor

	// Workers bounds how many communities run concurrently; <=0 uses the
	// CPU count.
	Workers int
	Logger  *slog.Logger
}

// Pipeline runs the per-community fetch → normalize → analyze → aggregate
// chain across a bounded worker pool. The only cross-community shared
// mutable state lives inside the rate-limit bucket owned by the source.
type Pipeline struct {
	source     ports.ItemSource
	normalizer *normalize.Normalizer
	analyzer   *analysis.Adapter
	predictor  ports.EngagementPredictor
	workers    int
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		source:     deps.Source,
		normalizer: deps.Normalizer,
		analyzer:   deps.Analyzer,
		predictor:  deps.Predictor,
		workers:    workers,
		logger:     deps.Logger,
	}
}

// Run processes every community and returns finalized metrics in the input
// order. Communities below run level absorb their own failures; the only
// error returned is domain.ErrRunFailed, raised when every community ended
// with zero analyzable items. A canceled context yields a partial result,
// not an error, under the same all-empty rule.
func (p *Pipeline) Run(ctx context.Context, communities []domain.Community) ([]domain.CommunityMetrics, error) {
	results := make([]domain.CommunityMetrics, len(communities))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.processCommunity(ctx, communities[idx])
			}
		}()
	}

	for idx := range communities {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	allEmpty := true
	for _, m := range results {
		if !m.Empty {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return results, domain.ErrRunFailed
	}

	return results, nil
}

// processCommunity runs the single-pass chain for one community. Items are
// normalized and analyzed in fetch order; topic fitting and engagement
// prediction are batch phases around the streaming fold.
func (p *Pipeline) processCommunity(ctx context.Context, community domain.Community) domain.CommunityMetrics {
	agg := metrics.NewAggregator(community.Name, p.logger)

	raws, err := p.source.Fetch(ctx, community)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFetchExhausted):
			p.warn("fetch exhausted retries, continuing with partial data",
				"community", community.Name, "items", len(raws), "error", err)
			agg.MarkFetchTruncated()
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			p.warn("fetch canceled, continuing with collected items",
				"community", community.Name, "items", len(raws))
		default:
			p.warn("fetch failed, continuing with collected items",
				"community", community.Name, "items", len(raws), "error", err)
			agg.MarkFetchTruncated()
		}
	}

	items := make([]domain.CanonicalItem, 0, len(raws))
	for _, raw := range raws {
		item, verdict := p.normalizer.Normalize(community.Name, raw)
		switch verdict {
		case normalize.OK:
			items = append(items, item)
		case normalize.Rejected:
			agg.RecordRejected()
		case normalize.Duplicate:
			agg.RecordDuplicate()
		}
	}

	corpus := make([]string, 0, len(items))
	for _, item := range items {
		corpus = append(corpus, item.Body)
	}
	topicModel := p.analyzer.FitTopics(ctx, corpus)

	for _, item := range items {
		// A run-level cancel stops analysis here; metrics finalize over
		// the items actually analyzed.
		if ctx.Err() != nil {
			p.warn("analysis interrupted", "community", community.Name)
			break
		}
		agg.Update(p.analyzer.Analyze(ctx, item, topicModel))
	}

	agg.ScorePredictions(ctx, p.predictor)

	final := agg.Finalize()
	if final.Empty {
		p.warn("community yielded no analyzable items",
			"community", community.Name, "error", domain.ErrAggregationImpossible)
	} else {
		p.info("community aggregated",
			"community", community.Name,
			"items", final.Items,
			"rejected", final.Rejected,
			"partial", final.Partial,
			"sentiment_mean", final.SentimentMean)
	}

	return final
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
