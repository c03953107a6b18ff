package localseek

import (
	"context"
	"testing"

	"github.com/localseek/localseek/internal/domain"
	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
)

func TestNew_RequiresAddrs(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing addrs")
	}
}

func TestFromPipelineResponse(t *testing.T) {
	resp := pipelineuc.Response{
		Query:           "coffee",
		ExpandedQueries: []string{"coffee", "how to brew coffee"},
		Results: []pipelineuc.Result{
			{
				Candidate: domain.Candidate{
					Collection: "notes", Path: "a.md", Title: "A", Snippet: "grind", Score: 12,
				},
				FinalScore: 0.825, Reranked: true, Relevance: 9, Blended: 0.825, LexicalRank: 1,
			},
			{
				Candidate: domain.Candidate{
					Collection: "notes", Path: "b.md", Title: "B", Snippet: "pour", Score: 8,
				},
				FinalScore: 8, LexicalRank: 2,
			},
		},
		WebResults: []domain.WebResult{{Title: "Guide", Snippet: "steps", URL: "https://example.com"}},
		Summary:    "Brew with care.",
		LatencyMS:  42,
	}

	got := fromPipelineResponse(resp)

	if got.Query != "coffee" || got.Summary != "Brew with care." || got.LatencyMS != 42 {
		t.Errorf("unexpected response header %+v", got)
	}
	if len(got.ExpandedQueries) != 2 {
		t.Errorf("expected expanded queries, got %v", got.ExpandedQueries)
	}
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got.Results))
	}

	first := got.Results[0]
	if !first.Reranked || first.BlendedScore != 0.825 || first.Relevance != 9 {
		t.Errorf("unexpected reranked result %+v", first)
	}
	second := got.Results[1]
	if second.Reranked || second.Score != 8 {
		t.Errorf("unexpected plain result %+v", second)
	}

	if len(got.WebResults) != 1 || got.WebResults[0].URL != "https://example.com" {
		t.Errorf("unexpected web results %+v", got.WebResults)
	}
}

func TestFromDomainCollection(t *testing.T) {
	got := fromDomainCollection(domain.Collection{
		Name: "notes", Path: "/srv/notes", Glob: "**/*.md", DocCount: 7,
	})
	want := Collection{Name: "notes", Path: "/srv/notes", Glob: "**/*.md", DocCount: 7}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
