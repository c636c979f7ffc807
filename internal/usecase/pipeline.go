package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/metrics"
	"StockSentiment/internal/ports"
	"StockSentiment/internal/sentiment"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source   ports.NewsSource
	Model    ports.ParagraphScorer
	Stream   ports.StreamSink
	KV       ports.KeyValueSink
	Series   ports.TimeSeriesSink
	Features ports.FeatureSink
	Notifier ports.Notifier
	Metrics  *metrics.Recorder
	// PushGateway, when set, receives the metrics after every run under PushJob.
	PushGateway string
	PushJob     string

	// Symbols is processed in order; a symbol's state is its last article's score.
	Symbols []ports.SymbolTarget
	// IsolateSymbols keeps going when one symbol fails to fetch or score.
	IsolateSymbols bool

	Logger *slog.Logger
	Now    func() time.Time
	RunID  func() string
}

// Pipeline implements one sentiment run.
type Pipeline struct {
	source   ports.NewsSource
	batch    *sentiment.BatchScorer
	agg      *sentiment.Aggregator
	stream   ports.StreamSink
	kv       ports.KeyValueSink
	series   ports.TimeSeriesSink
	features ports.FeatureSink
	notifier ports.Notifier
	metrics  *metrics.Recorder
	gateway  string
	pushJob  string

	symbols []ports.SymbolTarget
	isolate bool

	logger *slog.Logger
	now    func() time.Time
	runID  func() string
}

// SymbolFailure records why a symbol was dropped from an isolated run.
type SymbolFailure struct {
	Symbol string
	Err    error
}

// Summary describes the outcome of one run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Articles  int
	Written   []string
	Skipped   []string
	Failed    []SymbolFailure
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	runID := deps.RunID
	if runID == nil {
		runID = func() string { return uuid.NewString() }
	}

	batch := sentiment.NewBatchScorer(sentiment.NewArticleScorer(deps.Model), logger, nil)

	return &Pipeline{
		source:   deps.Source,
		batch:    batch,
		agg:      sentiment.NewAggregator(logger),
		stream:   deps.Stream,
		kv:       deps.KV,
		series:   deps.Series,
		features: deps.Features,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		gateway:  deps.PushGateway,
		pushJob:  deps.PushJob,
		symbols:  deps.Symbols,
		isolate:  deps.IsolateSymbols,
		logger:   logger,
		now:      now,
		runID:    runID,
	}
}

// Run fetches and scores every symbol, then writes the stream records, the
// per-symbol KV values, the feature snapshot and the time series, in that order.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: p.runID(), StartedAt: p.now()}
	ctx = domain.WithRunID(ctx, summary.RunID)
	logger := p.logger.With("run_id", summary.RunID)
	defer p.pushMetrics(ctx, logger)

	if p.source == nil {
		return summary, fmt.Errorf("news source is not configured")
	}

	logger.Info("getting news", "symbols", symbolNames(p.symbols))

	results := make([]sentiment.SymbolResult, 0, len(p.symbols))
	for _, target := range p.symbols {
		res, err := p.scoreSymbol(ctx, logger, target)
		if err != nil {
			if !p.isolate {
				summary.Duration = p.now().Sub(summary.StartedAt)
				return summary, fmt.Errorf("symbol %s: %w", target.Symbol, err)
			}
			logger.Error("symbol failed, continuing", "symbol", target.Symbol, "error", err)
			p.metrics.RecordFailed()
			summary.Failed = append(summary.Failed, SymbolFailure{Symbol: target.Symbol, Err: err})
			continue
		}
		results = append(results, res)
	}

	agg, err := p.agg.Aggregate(results)
	if err != nil {
		return summary, fmt.Errorf("aggregate: %w", err)
	}
	for range agg.Skipped {
		p.metrics.RecordSkipped()
	}
	summary.Skipped = agg.Skipped
	summary.Articles = len(agg.Records)
	summary.Written = agg.State.Symbols()

	if err := p.persist(ctx, logger, agg); err != nil {
		summary.Duration = p.now().Sub(summary.StartedAt)
		return summary, err
	}

	summary.Duration = p.now().Sub(summary.StartedAt)
	p.metrics.RecordRun(summary.Duration.Seconds(), summary.StartedAt.Add(summary.Duration).Unix())
	logger.Info("run finished",
		"articles", summary.Articles,
		"written", summary.Written,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"duration", summary.Duration)

	p.notify(ctx, logger, summary)

	if len(p.symbols) > 0 && len(summary.Failed) == len(p.symbols) {
		errs := make([]error, 0, len(summary.Failed))
		for _, f := range summary.Failed {
			errs = append(errs, fmt.Errorf("symbol %s: %w", f.Symbol, f.Err))
		}
		return summary, fmt.Errorf("all symbols failed: %w", errors.Join(errs...))
	}
	return summary, nil
}

func (p *Pipeline) scoreSymbol(ctx context.Context, logger *slog.Logger, target ports.SymbolTarget) (sentiment.SymbolResult, error) {
	logger.Info("getting news about symbol", "symbol", target.Symbol)

	articles, err := p.source.Fetch(ctx, target)
	if err != nil {
		return sentiment.SymbolResult{}, fmt.Errorf("fetch news: %w", err)
	}

	scores, err := p.batch.ScoreBatch(ctx, articles)
	if err != nil {
		return sentiment.SymbolResult{}, fmt.Errorf("score articles: %w", err)
	}
	for _, s := range scores {
		p.metrics.RecordArticle(target.Symbol, s)
	}

	return sentiment.SymbolResult{Symbol: target.Symbol, Articles: articles, Scores: scores}, nil
}

func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, agg sentiment.Aggregate) error {
	if p.stream != nil {
		for _, record := range agg.Records {
			err := p.stream.Put(ctx, record)
			p.metrics.RecordSinkWrite("stream", err)
			if err != nil {
				return fmt.Errorf("stream record %s: %w", record.Link, err)
			}
		}
	}

	if p.kv != nil {
		for _, symbol := range agg.State.Symbols() {
			v, _ := agg.State.Get(symbol)
			err := p.kv.Update(ctx, symbol, v)
			p.metrics.RecordSinkWrite("kv", err)
			if err != nil {
				return fmt.Errorf("kv update %s: %w", symbol, err)
			}
		}
	}

	if p.features != nil {
		logger.Info("ingesting new information to feature store", "rows", agg.State.Len())
		err := p.features.Ingest(ctx, sentiment.BuildFeatureRows(agg.State))
		p.metrics.RecordSinkWrite("features", err)
		if err != nil {
			return fmt.Errorf("feature ingest: %w", err)
		}
	}

	if p.series != nil && len(agg.Series) > 0 {
		err := p.series.Write(ctx, agg.Series)
		p.metrics.RecordSinkWrite("timeseries", err)
		if err != nil {
			return fmt.Errorf("time-series write: %w", err)
		}
	}

	return nil
}

func (p *Pipeline) pushMetrics(ctx context.Context, logger *slog.Logger) {
	if p.metrics == nil || p.gateway == "" {
		return
	}
	job := p.pushJob
	if job == "" {
		job = "stock_sentiment"
	}
	if err := p.metrics.Push(ctx, p.gateway, job); err != nil {
		logger.Warn("push metrics failed", "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, summary Summary) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishSummary(ctx, FormatSummary(summary)); err != nil {
		logger.Warn("publish summary failed", "error", err)
	}
}

// FormatSummary renders a Markdown digest of the run.
func FormatSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Stock sentiment run* `%s`\n", s.RunID)
	fmt.Fprintf(&b, "Articles: %d\n", s.Articles)
	if len(s.Written) > 0 {
		fmt.Fprintf(&b, "Updated: %s\n", strings.Join(s.Written, ", "))
	}
	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, "No news: %s\n", strings.Join(s.Skipped, ", "))
	}
	for _, f := range s.Failed {
		fmt.Fprintf(&b, "Failed %s: %v\n", f.Symbol, f.Err)
	}
	fmt.Fprintf(&b, "Took %s", s.Duration.Round(time.Millisecond))
	return b.String()
}

func symbolNames(targets []ports.SymbolTarget) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Symbol
	}
	return names
}
