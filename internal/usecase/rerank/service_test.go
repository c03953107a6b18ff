package rerank

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
)

type mockModel struct {
	available bool
	response  string
	err       error
	calls     int
	lastMsgs  []domain.ChatMessage
}

func (m *mockModel) IsAvailable(_ context.Context) bool { return m.available }

func (m *mockModel) Chat(_ context.Context, msgs []domain.ChatMessage, _ int, _ float32) (string, error) {
	m.calls++
	m.lastMsgs = msgs
	return m.response, m.err
}

type mockCache struct {
	entries map[string]float64
	sets    int
}

func newMockCache() *mockCache { return &mockCache{entries: map[string]float64{}} }

func (m *mockCache) Get(_ context.Context, queryFP, docFP string) (float64, bool) {
	v, ok := m.entries[queryFP+"|"+docFP]
	return v, ok
}

func (m *mockCache) Set(_ context.Context, queryFP, docFP string, score float64) {
	m.sets++
	m.entries[queryFP+"|"+docFP] = score
}

func cand(path string, score float64) domain.Candidate {
	return domain.Candidate{Collection: "docs", Path: path, Title: path, Snippet: "snippet " + path, Score: score}
}

func approxEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLexicalWeight_Boundaries(t *testing.T) {
	tests := []struct {
		rank int
		want float64
	}{
		{1, 0.75}, {3, 0.75}, {4, 0.60}, {10, 0.60}, {11, 0.40},
	}
	for _, tc := range tests {
		if got := lexicalWeight(tc.rank); got != tc.want {
			t.Errorf("lexicalWeight(%d) = %f, want %f", tc.rank, got, tc.want)
		}
	}
}

func TestRerank_BlendedScores(t *testing.T) {
	model := &mockModel{available: true, response: "9\n4\n2"}
	s := New(model, nil, 20, zap.NewNop())

	got, hits := s.Rerank(context.Background(), "coffee brewing", []domain.Candidate{
		cand("a", 12), cand("b", 8), cand("c", 3),
	})
	if hits != 0 {
		t.Errorf("expected 0 cache hits, got %d", hits)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}

	// Rank 1: 0.75*(12/15) + 0.25*(9/10) = 0.825
	// Rank 2: 0.75*(8/15)  + 0.25*(4/10) = 0.5
	// Rank 3: 0.75*(3/15)  + 0.25*(2/10) = 0.2
	wantBlended := []float64{0.825, 0.5, 0.2}
	wantPaths := []string{"a", "b", "c"}
	for i := range got {
		if got[i].Path != wantPaths[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i].Path, wantPaths[i])
		}
		if !approxEq(got[i].Blended, wantBlended[i]) {
			t.Errorf("blended[%d] = %f, want %f", i, got[i].Blended, wantBlended[i])
		}
	}
	if got[0].LexicalRank != 1 || got[0].Relevance != 9 {
		t.Errorf("unexpected rank/relevance: %+v", got[0])
	}
}

func TestRerank_OrderFlip(t *testing.T) {
	// Eleven candidates; the last has weak lexical standing but maximal
	// relevance, the first has strong lexical standing but zero relevance.
	candidates := make([]domain.Candidate, 11)
	for i := range candidates {
		candidates[i] = cand(string(rune('a'+i)), 12-float64(i))
	}
	resp := "0\n0\n0\n0\n0\n0\n0\n0\n0\n0\n10"
	model := &mockModel{available: true, response: resp}
	s := New(model, nil, 20, zap.NewNop())

	got, _ := s.Rerank(context.Background(), "q", candidates)

	// Rank 1: 0.75*(12/15) + 0.25*0 = 0.6
	// Rank 11: 0.40*(2/15) + 0.60*1 = 0.6533...
	if got[0].Path != "k" {
		t.Errorf("expected high-relevance tail candidate first, got %q", got[0].Path)
	}
	var rank1Blended float64
	for _, r := range got {
		if r.LexicalRank == 1 {
			rank1Blended = r.Blended
		}
	}
	if !approxEq(rank1Blended, 0.6) {
		t.Errorf("rank-1 blended = %f, want 0.6", rank1Blended)
	}
}

func TestRerank_ModelUnavailableIsNeutral(t *testing.T) {
	model := &mockModel{available: false}
	s := New(model, nil, 20, zap.NewNop())

	in := []domain.Candidate{cand("a", 12), cand("b", 8), cand("c", 3)}
	got, _ := s.Rerank(context.Background(), "q", in)

	if len(got) != len(in) {
		t.Fatalf("expected size unchanged, got %d", len(got))
	}
	for _, r := range got {
		if r.Relevance != 5.0 {
			t.Errorf("expected neutral relevance 5.0, got %f for %q", r.Relevance, r.Path)
		}
	}
	if model.calls != 0 {
		t.Errorf("expected no model call, got %d", model.calls)
	}
}

func TestRerank_ModelErrorIsNeutralAndUncached(t *testing.T) {
	model := &mockModel{available: true, err: errors.New("timeout")}
	cache := newMockCache()
	s := New(model, cache, 20, zap.NewNop())

	got, _ := s.Rerank(context.Background(), "q", []domain.Candidate{cand("a", 12)})
	if got[0].Relevance != 5.0 {
		t.Errorf("expected neutral relevance, got %f", got[0].Relevance)
	}
	if cache.sets != 0 {
		t.Error("failed call must not cache neutral scores")
	}
}

func TestRerank_PadsMissingScores(t *testing.T) {
	model := &mockModel{available: true, response: "8"}
	cache := newMockCache()
	s := New(model, cache, 20, zap.NewNop())

	got, _ := s.Rerank(context.Background(), "q", []domain.Candidate{cand("a", 12), cand("b", 8)})

	byPath := map[string]float64{}
	for _, r := range got {
		byPath[r.Path] = r.Relevance
	}
	if byPath["a"] != 8 || byPath["b"] != 5 {
		t.Errorf("expected scores a=8 b=5 (padded), got %v", byPath)
	}
	if cache.sets != 2 {
		t.Errorf("successful call caches padded scores too, got %d writes", cache.sets)
	}
}

func TestRerank_CacheHitsSkipModel(t *testing.T) {
	model := &mockModel{available: true, response: "9\n4"}
	cache := newMockCache()
	s := New(model, cache, 20, zap.NewNop())
	ctx := context.Background()

	in := []domain.Candidate{cand("a", 12), cand("b", 8)}
	s.Rerank(ctx, "q", in)

	got, hits := s.Rerank(ctx, "q", in)
	if hits != 2 {
		t.Errorf("expected 2 cache hits, got %d", hits)
	}
	if model.calls != 1 {
		t.Errorf("expected 1 model call total, got %d", model.calls)
	}
	byPath := map[string]float64{}
	for _, r := range got {
		byPath[r.Path] = r.Relevance
	}
	if byPath["a"] != 9 || byPath["b"] != 4 {
		t.Errorf("expected cached scores, got %v", byPath)
	}
}

func TestRerank_TopKBound(t *testing.T) {
	model := &mockModel{available: true, response: "5\n5"}
	s := New(model, nil, 2, zap.NewNop())

	got, _ := s.Rerank(context.Background(), "q", []domain.Candidate{
		cand("a", 12), cand("b", 8), cand("c", 3),
	})
	if len(got) != 2 {
		t.Errorf("expected topK bound of 2, got %d", len(got))
	}
}

func TestRerank_EmptyInput(t *testing.T) {
	s := New(&mockModel{available: true}, nil, 20, zap.NewNop())

	got, hits := s.Rerank(context.Background(), "q", nil)
	if got != nil || hits != 0 {
		t.Errorf("expected empty output, got %v (%d hits)", got, hits)
	}
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want []float64
	}{
		{"plain numbers", "9\n4\n2", []float64{9, 4, 2}},
		{"indexed lines", "[1] 9\n2: 4\n3) 2", []float64{9, 4, 2}},
		{"last token wins", "doc 1 scores 7.5", []float64{7.5}},
		{"skips prose lines", "here are the scores:\n9\n4", []float64{9, 4}},
		{"clamps range", "15\n-3", []float64{10, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseScores(tc.resp)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("score %d = %f, want %f", i, got[i], tc.want[i])
				}
			}
		})
	}
}
