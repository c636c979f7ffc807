package parser

import (
	"context"
	"fmt"
	"log/slog"

	"StockSentiment/internal/domain"
	"StockSentiment/internal/ports"
	"StockSentiment/internal/scanner"
)

const defaultScanner = "investing"

// StrategySource implements NewsSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.NewsSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Fetch resolves the target's scanner and returns its articles in page order.
func (s *StrategySource) Fetch(ctx context.Context, target ports.SymbolTarget) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	name := target.Scanner
	if name == "" {
		name = defaultScanner
	}

	s.debug("fetch news", "symbol", target.Symbol, "scanner", name, "slug", target.Slug)
	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", target.Symbol, err)
	}

	results, err := strategy.Scan(ctx, scanner.Request{Symbol: target.Symbol, Slug: target.Slug})
	if err != nil {
		return nil, fmt.Errorf("scan symbol %s: %w", target.Symbol, err)
	}

	for i := range results {
		if results[i].Symbol == "" {
			results[i].Symbol = target.Symbol
		}
	}
	s.debug("symbol produced articles", "symbol", target.Symbol, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
