package ports

import (
	"context"
	"time"

	"StockSentiment/internal/domain"
)

// SymbolTarget identifies a tracked ticker and how to find its news.
type SymbolTarget struct {
	Symbol  string
	Slug    string
	Scanner string
}

// NewsSource pulls the current article list for one symbol, in page order.
type NewsSource interface {
	Fetch(ctx context.Context, target SymbolTarget) ([]domain.Article, error)
}

// ParagraphScorer sends paragraphs to the remote sentiment model and returns one output per paragraph.
type ParagraphScorer interface {
	ScoreParagraphs(ctx context.Context, paragraphs []string) ([]float64, error)
}

// StreamSink appends one record per article to the event stream.
type StreamSink interface {
	Put(ctx context.Context, record domain.StreamRecord) error
}

// KeyValueSink upserts the latest sentiment for a symbol.
type KeyValueSink interface {
	Update(ctx context.Context, symbol string, sentiment float64) error
}

// TimeSeriesSink bulk-writes rows already sorted ascending by time.
type TimeSeriesSink interface {
	Write(ctx context.Context, rows []domain.SeriesRow) error
}

// FeatureSink replaces the per-symbol feature snapshot.
type FeatureSink interface {
	Ingest(ctx context.Context, rows []domain.FeatureRow) error
}

// Notifier delivers the end-of-run summary to an operator channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
