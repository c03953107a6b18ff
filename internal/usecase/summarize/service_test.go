package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
)

type mockModel struct {
	available  bool
	response   string
	err        error
	lastPrompt string
}

func (m *mockModel) IsAvailable(_ context.Context) bool { return m.available }

func (m *mockModel) Chat(_ context.Context, msgs []domain.ChatMessage, _ int, _ float32) (string, error) {
	if len(msgs) > 0 {
		m.lastPrompt = msgs[len(msgs)-1].Content
	}
	return m.response, m.err
}

func results() []domain.Candidate {
	return []domain.Candidate{
		{Collection: "notes", Path: "a.md", Title: "Pour Over Basics", Snippet: "Grind size matters."},
		{Collection: "notes", Path: "b.md", Title: "Water Temp", Snippet: "Aim for 93C."},
	}
}

func TestSummarize_IncludesContext(t *testing.T) {
	model := &mockModel{available: true, response: " A short summary. "}
	s := New(model, zap.NewNop())

	got, ok := s.Summarize(context.Background(), "coffee brewing", results(),
		[]string{"coffee brewing", "how to brew coffee"},
		[]domain.WebResult{{Title: "Web Guide", Snippet: "steps", URL: "https://example.com"}},
	)
	if !ok {
		t.Fatal("expected summary")
	}
	if got != "A short summary." {
		t.Errorf("expected trimmed summary, got %q", got)
	}
	for _, fragment := range []string{
		"Query: coffee brewing",
		"Search expanded to: coffee brewing, how to brew coffee",
		"Pour Over Basics",
		"Web Guide",
		"Source: https://example.com",
	} {
		if !strings.Contains(model.lastPrompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, model.lastPrompt)
		}
	}
}

func TestSummarize_ModelUnavailable(t *testing.T) {
	s := New(&mockModel{available: false}, zap.NewNop())

	if _, ok := s.Summarize(context.Background(), "q", results(), nil, nil); ok {
		t.Error("expected no summary when model unavailable")
	}
}

func TestSummarize_ModelErrorIsSilent(t *testing.T) {
	s := New(&mockModel{available: true, err: errors.New("timeout")}, zap.NewNop())

	if _, ok := s.Summarize(context.Background(), "q", results(), nil, nil); ok {
		t.Error("expected no summary on model error")
	}
}

func TestSummarize_NothingToSummarize(t *testing.T) {
	s := New(&mockModel{available: true, response: "x"}, zap.NewNop())

	got, ok := s.Summarize(context.Background(), "q", nil, nil, nil)
	if !ok || got != "No results to summarize." {
		t.Errorf("expected placeholder summary, got %q (ok=%v)", got, ok)
	}
}
