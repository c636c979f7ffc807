package sentiment

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"StockSentiment/internal/domain"
)

type fakeModel struct {
	calls   [][]string
	outputs func(paragraphs []string) ([]float64, error)
}

func (f *fakeModel) ScoreParagraphs(_ context.Context, paragraphs []string) ([]float64, error) {
	f.calls = append(f.calls, paragraphs)
	return f.outputs(paragraphs)
}

func constantOutputs(v float64) func([]string) ([]float64, error) {
	return func(p []string) ([]float64, error) {
		out := make([]float64, len(p))
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestArticleScorerAveragesShiftedOutputs(t *testing.T) {
	t.Parallel()

	model := &fakeModel{outputs: func([]string) ([]float64, error) {
		return []float64{1, 2, 3}, nil
	}}
	scorer := NewArticleScorer(model)

	got, err := scorer.Score(context.Background(), "first\nsecond\nthird")
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !almostEqual(got, 1) {
		t.Fatalf("expected (0+1+2)/3=1, got %v", got)
	}

	if len(model.calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(model.calls))
	}
	if !reflect.DeepEqual(model.calls[0], []string{"first", "second", "third"}) {
		t.Fatalf("unexpected paragraphs: %#v", model.calls[0])
	}
}

func TestArticleScorerKeepsEmptyParagraphs(t *testing.T) {
	t.Parallel()

	model := &fakeModel{outputs: constantOutputs(2)}
	scorer := NewArticleScorer(model)

	if _, err := scorer.Score(context.Background(), "a\n\nb"); err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !reflect.DeepEqual(model.calls[0], []string{"a", "", "b"}) {
		t.Fatalf("empty paragraph must be passed through, got %#v", model.calls[0])
	}
}

func TestArticleScorerRejectsUndersizedResponse(t *testing.T) {
	t.Parallel()

	model := &fakeModel{outputs: func([]string) ([]float64, error) {
		return []float64{3}, nil
	}}
	_, err := NewArticleScorer(model).Score(context.Background(), "a\nb")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestArticleScorerPropagatesModelError(t *testing.T) {
	t.Parallel()

	model := &fakeModel{outputs: func([]string) ([]float64, error) {
		return nil, domain.ErrNetwork
	}}
	_, err := NewArticleScorer(model).Score(context.Background(), "a")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestCombineOutputs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		outputs []float64
		want    float64
	}{
		{name: "single neutral", outputs: []float64{1}, want: 0},
		{name: "mixed", outputs: []float64{1, 3, 5, 3}, want: 2},
		{name: "fractional", outputs: []float64{2, 1}, want: 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CombineOutputs(tc.outputs)
			if err != nil {
				t.Fatalf("CombineOutputs error: %v", err)
			}
			if !almostEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if _, err := CombineOutputs(nil); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput for zero outputs, got %v", err)
	}
}

func TestBatchScorerPreservesOrder(t *testing.T) {
	t.Parallel()

	// Output encodes the paragraph count so each article gets a distinct score.
	model := &fakeModel{outputs: func(p []string) ([]float64, error) {
		out := make([]float64, len(p))
		for i := range out {
			out[i] = float64(len(p)) + 1
		}
		return out, nil
	}}

	articles := []domain.Article{
		{Symbol: "GOOGL", Link: "a", Text: "x\ny\nz"},
		{Symbol: "GOOGL", Link: "b", Text: "x"},
		{Symbol: "GOOGL", Link: "c", Text: "x\ny"},
	}

	var progress []int
	batch := NewBatchScorer(NewArticleScorer(model), nil, func(symbol string, index, total int) {
		if total != len(articles) {
			t.Errorf("unexpected total %d", total)
		}
		progress = append(progress, index)
	})

	scores, err := batch.ScoreBatch(context.Background(), articles)
	if err != nil {
		t.Fatalf("ScoreBatch error: %v", err)
	}
	if !reflect.DeepEqual(scores, []float64{3, 1, 2}) {
		t.Fatalf("unexpected scores: %v", scores)
	}
	if !reflect.DeepEqual(progress, []int{1, 2, 3}) {
		t.Fatalf("progress must fire before each article, got %v", progress)
	}
}

func TestBatchScorerEmptyInput(t *testing.T) {
	t.Parallel()

	model := &fakeModel{outputs: constantOutputs(1)}
	scores, err := NewBatchScorer(NewArticleScorer(model), nil, nil).ScoreBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("ScoreBatch error: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected no scores, got %v", scores)
	}
	if len(model.calls) != 0 {
		t.Fatalf("model must not be called for empty batch")
	}
}

func TestBatchScorerStopsOnFirstFailure(t *testing.T) {
	t.Parallel()

	model := &fakeModel{}
	model.outputs = func(p []string) ([]float64, error) {
		if len(model.calls) == 2 {
			return nil, domain.ErrNetwork
		}
		return constantOutputs(1)(p)
	}

	articles := []domain.Article{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	_, err := NewBatchScorer(NewArticleScorer(model), nil, nil).ScoreBatch(context.Background(), articles)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if len(model.calls) != 2 {
		t.Fatalf("expected scoring to stop after the failing article, got %d calls", len(model.calls))
	}
}
