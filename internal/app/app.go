package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"RedditPulse/internal/analysis"
	"RedditPulse/internal/config"
	"RedditPulse/internal/domain"
	"RedditPulse/internal/infrastructure/lexicon"
	"RedditPulse/internal/infrastructure/nlp"
	"RedditPulse/internal/infrastructure/reddit"
	"RedditPulse/internal/infrastructure/storage"
	"RedditPulse/internal/logging"
	"RedditPulse/internal/normalize"
	"RedditPulse/internal/ports"
	"RedditPulse/internal/ratelimit"
	"RedditPulse/internal/report"
	"RedditPulse/internal/usecase"
)

// Application wires configuration to the pipeline and run lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	assembler *report.Assembler
	archive   ports.ReportArchive
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	bucket := ratelimit.NewBucket(cfg.Reddit.RequestsPerMinute, cfg.Reddit.Burst)

	source, err := reddit.NewClient(cfg.Reddit, bucket, baseLogger.With("component", "reddit"))
	if err != nil {
		return nil, fmt.Errorf("build reddit client: %w", err)
	}

	nlpClient := nlp.NewClient(cfg.Analysis.InferenceURL, cfg.Analysis.APIKey)

	analyzer := analysis.NewAdapter(analysis.Deps{
		Lexicon:        lexicon.NewScorer(),
		Classifier:     nlpClient,
		Topics:         nlpClient,
		Entities:       nlpClient,
		TopicMinCorpus: cfg.Analysis.TopicMinCorpus,
		Logger:         baseLogger.With("component", "analysis"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Normalizer: normalize.New(),
		Analyzer:   analyzer,
		Predictor:  nlpClient,
		Workers:    cfg.Collection.Workers,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	var archive ports.ReportArchive
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open report archive: %w", err)
		}
		archive = storage.NewPostgresArchive(db)
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		assembler: report.NewAssembler(),
		archive:   archive,
	}, nil
}

// Run executes one collection pass and writes the final report. The only
// fatal condition is domain.ErrRunFailed; partial community failures are
// recorded inside the report.
func (a *Application) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if timeout := a.cfg.Collection.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	communities := a.cfg.Collection.Communities()

	a.logger.Info("run starting",
		"run_id", runID,
		"communities", len(communities),
		"timeframe", a.cfg.Collection.Timeframe)

	fragments, runErr := a.pipeline.Run(ctx, communities)

	baselines := a.loadBaselines(ctx)

	rep := a.assembler.Assemble(
		runID,
		time.Now().UTC(),
		domain.Timeframe(a.cfg.Collection.Timeframe),
		fragments,
		a.cfg.Output.Visualizations,
		baselines,
	)

	if err := a.writeReport(rep); err != nil {
		a.logger.Error("write report", "error", err)
	}

	if a.archive != nil {
		// Archiving is best effort; the run result stands either way.
		if err := a.archive.Save(context.WithoutCancel(ctx), rep); err != nil {
			a.logger.Error("archive report", "error", err)
		}
	}

	a.logger.Info("run finished",
		"run_id", runID,
		"total_items", rep.Summary.TotalItems,
		"total_rejected", rep.Summary.TotalRejected)

	return runErr
}

func (a *Application) loadBaselines(ctx context.Context) map[string]float64 {
	if a.archive == nil {
		return nil
	}

	baselines, err := a.archive.LastMeans(context.WithoutCancel(ctx), a.cfg.Collection.Subreddits)
	if err != nil {
		a.logger.Warn("load baselines", "error", err)
		return nil
	}
	return baselines
}

func (a *Application) writeReport(rep domain.Report) error {
	payload, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	path := a.cfg.Output.Path
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(append(payload, '\n'))
		return err
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	a.logger.Info("report written", "path", path)
	return nil
}
