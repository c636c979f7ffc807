package sentiment

import "StockSentiment/internal/domain"

// BuildFeatureRows flattens symbol state into {symbol, sentiment} rows in state order.
func BuildFeatureRows(state *domain.SymbolState) []domain.FeatureRow {
	rows := make([]domain.FeatureRow, 0, state.Len())
	for _, symbol := range state.Symbols() {
		v, _ := state.Get(symbol)
		rows = append(rows, domain.FeatureRow{Symbol: symbol, Sentiment: v})
	}
	return rows
}
