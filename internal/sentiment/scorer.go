// Package sentiment turns article texts into sentiment scores and reshapes
// them into the stream, key-value, time-series and feature representations.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/ports"
)

// ParagraphSeparator splits cleaned article text into paragraph units.
const ParagraphSeparator = "\n"

// ArticleScorer scores one article through a remote paragraph model.
type ArticleScorer struct {
	model ports.ParagraphScorer
}

// NewArticleScorer wires the remote paragraph model.
func NewArticleScorer(model ports.ParagraphScorer) *ArticleScorer {
	return &ArticleScorer{model: model}
}

// Score splits text on line separators (empty paragraphs are kept), requests one
// output per paragraph in a single call and averages the outputs shifted by -1.
func (s *ArticleScorer) Score(ctx context.Context, text string) (float64, error) {
	if s == nil || s.model == nil {
		return 0, fmt.Errorf("article scorer is not configured")
	}

	paragraphs := strings.Split(text, ParagraphSeparator)

	outputs, err := s.model.ScoreParagraphs(ctx, paragraphs)
	if err != nil {
		return 0, fmt.Errorf("score paragraphs: %w", err)
	}
	if len(outputs) != len(paragraphs) {
		return 0, fmt.Errorf("%w: got %d outputs for %d paragraphs", domain.ErrMalformedResponse, len(outputs), len(paragraphs))
	}

	return CombineOutputs(outputs)
}

// CombineOutputs returns sum(o-1)/len(outputs).
func CombineOutputs(outputs []float64) (float64, error) {
	if len(outputs) == 0 {
		return 0, fmt.Errorf("%w: no paragraph outputs", domain.ErrEmptyInput)
	}

	var sum float64
	for _, o := range outputs {
		sum += o - 1
	}
	return sum / float64(len(outputs)), nil
}

// ProgressFunc is notified before each article is scored; index is 1-based.
type ProgressFunc func(symbol string, index, total int)

// BatchScorer drives ArticleScorer sequentially over one symbol's articles.
type BatchScorer struct {
	scorer   *ArticleScorer
	logger   *slog.Logger
	progress ProgressFunc
}

// NewBatchScorer builds a batch scorer; progress may be nil.
func NewBatchScorer(scorer *ArticleScorer, logger *slog.Logger, progress ProgressFunc) *BatchScorer {
	return &BatchScorer{scorer: scorer, logger: logger, progress: progress}
}

// ScoreBatch returns one score per article at the same position. The first
// failure aborts the batch.
func (b *BatchScorer) ScoreBatch(ctx context.Context, articles []domain.Article) ([]float64, error) {
	scores := make([]float64, 0, len(articles))
	for i, article := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if b.logger != nil {
			b.logger.Info(fmt.Sprintf("getting score for article %d/%d", i+1, len(articles)),
				"symbol", article.Symbol, "link", article.Link)
		}
		if b.progress != nil {
			b.progress(article.Symbol, i+1, len(articles))
		}

		score, err := b.scorer.Score(ctx, article.Text)
		if err != nil {
			return nil, fmt.Errorf("article %d (%s): %w", i+1, article.Link, err)
		}
		scores = append(scores, score)
	}
	return scores, nil
}
