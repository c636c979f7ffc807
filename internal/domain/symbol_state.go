package domain

// SymbolState keeps the last known sentiment per symbol in first-seen order.
type SymbolState struct {
	order  []string
	values map[string]float64
}

// NewSymbolState returns an empty state.
func NewSymbolState() *SymbolState {
	return &SymbolState{values: map[string]float64{}}
}

// Set overwrites the symbol's sentiment; the symbol keeps its original position.
func (s *SymbolState) Set(symbol string, sentiment float64) {
	if s.values == nil {
		s.values = map[string]float64{}
	}
	if _, ok := s.values[symbol]; !ok {
		s.order = append(s.order, symbol)
	}
	s.values[symbol] = sentiment
}

// Get returns the sentiment recorded for symbol.
func (s *SymbolState) Get(symbol string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.values[symbol]
	return v, ok
}

// Symbols lists symbols in the order they were first set.
func (s *SymbolState) Symbols() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports how many symbols have a value.
func (s *SymbolState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
