package sentiment

import (
	"fmt"
	"log/slog"
	"slices"

	"StockSentiment/internal/domain"
)

// SymbolResult is one symbol's fetched articles and their positional scores.
type SymbolResult struct {
	Symbol   string
	Articles []domain.Article
	Scores   []float64
}

// Aggregate holds the three persisted representations of one run.
type Aggregate struct {
	Records []domain.StreamRecord
	State   *domain.SymbolState
	Series  []domain.SeriesRow
	Skipped []string
}

// Aggregator accumulates scored symbols in processing order.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator builds an aggregator; logger may be nil.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate zips each symbol's articles with its scores. A symbol's state is the
// score of its last article. Symbols without articles are skipped. Series rows
// are stably sorted ascending by time and are not deduplicated.
func (a *Aggregator) Aggregate(results []SymbolResult) (Aggregate, error) {
	agg := Aggregate{State: domain.NewSymbolState()}

	for _, res := range results {
		if len(res.Articles) != len(res.Scores) {
			return Aggregate{}, fmt.Errorf("%w: symbol %s has %d articles and %d scores",
				domain.ErrMalformedResponse, res.Symbol, len(res.Articles), len(res.Scores))
		}
		if len(res.Articles) == 0 {
			if a.logger != nil {
				a.logger.Warn("no articles found, skipping symbol", "symbol", res.Symbol)
			}
			agg.Skipped = append(agg.Skipped, res.Symbol)
			continue
		}

		for i, article := range res.Articles {
			score := res.Scores[i]
			agg.Records = append(agg.Records, domain.StreamRecord{
				Content:   article.Text,
				Time:      article.PublishedAt.Format(domain.PublishTimeLayout),
				Symbol:    res.Symbol,
				Link:      article.Link,
				Sentiment: score,
			})
			agg.Series = append(agg.Series, domain.SeriesRow{
				Time:      article.PublishedAt,
				Symbol:    res.Symbol,
				Sentiment: score,
			})
			agg.State.Set(res.Symbol, score)
		}
	}

	slices.SortStableFunc(agg.Series, func(x, y domain.SeriesRow) int {
		return x.Time.Compare(y.Time)
	})

	return agg, nil
}
