package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/ports"
)

var (
	psql      = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	tableExpr = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", domain.ErrNetwork, err)
	}
	return db, nil
}

// PostgresTimeSeries persists sentiment points keyed by (time, symbol).
type PostgresTimeSeries struct {
	db    *sql.DB
	table string
}

var _ ports.TimeSeriesSink = (*PostgresTimeSeries)(nil)

// NewPostgresTimeSeries validates the table name and wires the pool.
func NewPostgresTimeSeries(db *sql.DB, table string) (*PostgresTimeSeries, error) {
	if !tableExpr.MatchString(table) {
		return nil, fmt.Errorf("invalid time-series table name %q", table)
	}
	return &PostgresTimeSeries{db: db, table: table}, nil
}

// Write inserts rows in the given order inside one transaction. A repeated
// (time, symbol) key overwrites the earlier row.
func (r *PostgresTimeSeries) Write(ctx context.Context, rows []domain.SeriesRow) error {
	if r.db == nil || len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin time-series tx: %v", domain.ErrSinkWrite, err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		query, args, err := seriesInsert(r.table, row).ToSql()
		if err != nil {
			return fmt.Errorf("build time-series insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert %s/%s: %v", domain.ErrSinkWrite, row.Symbol, row.Time.Format(domain.PublishTimeLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit time-series tx: %v", domain.ErrSinkWrite, err)
	}
	return nil
}

func seriesInsert(table string, row domain.SeriesRow) sq.InsertBuilder {
	return psql.Insert(table).
		Columns("time", "symbol", "sentiment").
		Values(row.Time.UTC(), row.Symbol, row.Sentiment).
		Suffix("ON CONFLICT (time, symbol) DO UPDATE SET sentiment = EXCLUDED.sentiment")
}

// PostgresFeatureStore keeps the current per-symbol sentiment snapshot.
type PostgresFeatureStore struct {
	db    *sql.DB
	table string
}

var _ ports.FeatureSink = (*PostgresFeatureStore)(nil)

// NewPostgresFeatureStore validates the table name and wires the pool.
func NewPostgresFeatureStore(db *sql.DB, table string) (*PostgresFeatureStore, error) {
	if !tableExpr.MatchString(table) {
		return nil, fmt.Errorf("invalid feature table name %q", table)
	}
	return &PostgresFeatureStore{db: db, table: table}, nil
}

// Ingest upserts all rows in a single statement; an empty table is a no-op.
func (r *PostgresFeatureStore) Ingest(ctx context.Context, rows []domain.FeatureRow) error {
	if r.db == nil || len(rows) == 0 {
		return nil
	}

	query, args, err := featureUpsert(r.table, rows).ToSql()
	if err != nil {
		return fmt.Errorf("build feature upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert features: %v", domain.ErrSinkWrite, err)
	}
	return nil
}

func featureUpsert(table string, rows []domain.FeatureRow) sq.InsertBuilder {
	insert := psql.Insert(table).Columns("symbol", "sentiment", "updated_at")
	for _, row := range rows {
		insert = insert.Values(row.Symbol, row.Sentiment, sq.Expr("NOW()"))
	}
	return insert.Suffix("ON CONFLICT (symbol) DO UPDATE SET sentiment = EXCLUDED.sentiment, updated_at = EXCLUDED.updated_at")
}

// Provision creates both tables when they do not exist yet.
func Provision(ctx context.Context, db *sql.DB, seriesTable, featureTable string) error {
	for _, name := range []string{seriesTable, featureTable} {
		if !tableExpr.MatchString(name) {
			return fmt.Errorf("invalid table name %q", name)
		}
	}

	for _, stmt := range provisionStatements(seriesTable, featureTable) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("provision: %w", err)
		}
	}
	return nil
}

func provisionStatements(seriesTable, featureTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    time      TIMESTAMPTZ      NOT NULL,
    symbol    TEXT             NOT NULL,
    sentiment DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (time, symbol)
)`, seriesTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    symbol     TEXT PRIMARY KEY,
    sentiment  DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMPTZ      NOT NULL DEFAULT NOW()
)`, featureTable),
	}
}
