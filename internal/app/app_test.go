package app

import (
	"context"
	"testing"

	"StockSentiment/internal/config"
)

func TestTargetsKeepOrder(t *testing.T) {
	t.Parallel()

	targets := Targets([]config.SymbolConfig{
		{Symbol: "MSFT", Slug: "microsoft-corp"},
		{Symbol: "AAPL", Slug: "apple-computer-inc", Scanner: "investing"},
	})

	if len(targets) != 2 || targets[0].Symbol != "MSFT" || targets[1].Symbol != "AAPL" {
		t.Fatalf("unexpected targets: %+v", targets)
	}
	if targets[1].Scanner != "investing" || targets[0].Slug != "microsoft-corp" {
		t.Fatalf("fields not copied: %+v", targets)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for empty config")
	}
}
