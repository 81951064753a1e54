package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"RedditPulse/internal/domain"
	"RedditPulse/internal/ports"
)

// PostgresArchive persists finalized reports and serves per-community
// sentiment baselines from prior runs.
type PostgresArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ReportArchive = (*PostgresArchive)(nil)

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save upserts the report snapshot and one baseline row per community.
func (a *PostgresArchive) Save(ctx context.Context, report domain.Report) error {
	if a.db == nil {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query, args, err := a.builder.
		Insert("run_reports").
		Columns("run_id", "generated_at", "timeframe", "payload").
		Values(report.RunID, report.GeneratedAt, string(report.Timeframe), payload).
		Suffix("ON CONFLICT (run_id) DO UPDATE SET payload = EXCLUDED.payload").
		ToSql()
	if err != nil {
		return fmt.Errorf("build report insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}

	for name, m := range report.Communities {
		if m.Empty {
			continue
		}

		query, args, err := a.builder.
			Insert("community_metrics").
			Columns("run_id", "community", "generated_at", "sentiment_mean", "items").
			Values(report.RunID, name, report.GeneratedAt, m.SentimentMean, m.Items).
			Suffix("ON CONFLICT (run_id, community) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("build metrics insert: %w", err)
		}

		if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert metrics for %s: %w", name, err)
		}
	}

	return nil
}

// LastMeans returns the most recent archived sentiment mean per community.
// Communities with no history are absent from the map.
func (a *PostgresArchive) LastMeans(ctx context.Context, communities []string) (map[string]float64, error) {
	if a.db == nil || len(communities) == 0 {
		return map[string]float64{}, nil
	}

	query, args, err := a.builder.
		Select("DISTINCT ON (community) community", "sentiment_mean").
		From("community_metrics").
		Where("community = ANY(?)", pq.Array(communities)).
		OrderBy("community", "generated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build baselines query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}

	result := make(map[string]float64)
	for rows.Next() {
		var community string
		var mean float64
		if err := rows.Scan(&community, &mean); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		result[community] = mean
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}
