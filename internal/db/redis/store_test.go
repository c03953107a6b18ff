package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/localseek/localseek/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Index Already Exists", "index already exists", true},
		{"UNKNOWN INDEX NAME", "unknown index name", true},
		{"hello world", "world", true},
		{"short", "longer than input", false},
		{"exact", "exact", true},
		{"", "", true},
		{"notempty", "", true},
	}
	for _, tc := range tests {
		got := containsIgnoreCase(tc.s, tc.sub)
		if got != tc.want {
			t.Errorf("containsIgnoreCase(%q, %q) = %v, want %v", tc.s, tc.sub, got, tc.want)
		}
	}
}

// --- kv.go tests ---

func TestGet_Hit(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisString("v")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "v" {
		t.Errorf("expected %q, got %q", "v", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestIncrBy_ReturnsNewValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "counter", "1")).
		Return(mock.Result(mock.RedisInt64(5)))

	s := NewStoreForTest(c)
	n, err := s.IncrBy(context.Background(), "counter", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5, got %d", n)
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "mykey"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f1": "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	ok, err := s.Exists(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected key to exist")
	}
}

// --- index.go tests ---

func TestBuildCreateArgs(t *testing.T) {
	def := &db.IndexDefinition{
		Name:     "docs:idx",
		Prefixes: []string{"docs:"},
		Fields: []db.IndexField{
			{Name: "title", Type: db.IndexFieldText, Weight: 2},
			{Name: "content", Type: db.IndexFieldText},
			{Name: "collection", Type: db.IndexFieldTag},
		},
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"docs:idx", "ON", "HASH", "PREFIX", "1", "docs:", "SCHEMA",
		"title", "TEXT", "WEIGHT", "2",
		"content", "TEXT",
		"collection", "TAG",
	}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], args[i])
		}
	}
}

func TestBuildCreateArgs_Invalid(t *testing.T) {
	if _, err := buildCreateArgs(&db.IndexDefinition{}); err == nil {
		t.Error("expected error for empty definition")
	}
	def := &db.IndexDefinition{Name: "idx", Fields: []db.IndexField{{Name: ""}}}
	if _, err := buildCreateArgs(def); err == nil {
		t.Error("expected error for missing field name")
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(errors.New("Index already exists")))

	// rueidis server errors pass through IsRedisErr only for RedisError values;
	// a plain error maps to db.Error instead.
	s := NewStoreForTest(c)
	def := &db.IndexDefinition{
		Name:   "idx",
		Fields: []db.IndexField{{Name: "content", Type: db.IndexFieldText}},
	}
	if err := s.CreateIndex(context.Background(), def); err == nil {
		t.Fatal("expected error")
	}
}

// --- search.go tests ---

func TestBuildTextQuery(t *testing.T) {
	t.Run("no collection", func(t *testing.T) {
		got := buildTextQuery("coffee brewing", "")
		if got != "@content:(coffee brewing)" {
			t.Errorf("unexpected query: %q", got)
		}
	})

	t.Run("with collection", func(t *testing.T) {
		got := buildTextQuery("coffee", "notes")
		if got != "@collection:{notes} @content:(coffee)" {
			t.Errorf("unexpected query: %q", got)
		}
	})

	t.Run("escapes operators", func(t *testing.T) {
		got := buildTextQuery("a-b", "")
		if got != `@content:(a\-b)` {
			t.Errorf("unexpected query: %q", got)
		}
	})
}

func TestSearchText_ParsesEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("docs:notes/brew.md"),
			mock.RedisString("12.5"),
			mock.RedisArray(
				mock.RedisString("title"), mock.RedisString("Brewing"),
				mock.RedisString("snippet"), mock.RedisString("..."),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "docs:idx",
		Query:     "brew",
		TopK:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got total=%d len=%d", res.Total, len(res.Entries))
	}
	e := res.Entries[0]
	if e.Key != "docs:notes/brew.md" {
		t.Errorf("unexpected key %q", e.Key)
	}
	if e.Score != 12.5 {
		t.Errorf("unexpected score %f", e.Score)
	}
	if e.Fields["title"] != "Brewing" {
		t.Errorf("unexpected fields %v", e.Fields)
	}
}

func TestSearchText_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.SearchText(context.Background(), &db.TextQuery{
		IndexName: "docs:idx",
		Query:     "nothing",
		TopK:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestSearchText_Validation(t *testing.T) {
	s := NewStoreForTest(nil)
	if _, err := s.SearchText(context.Background(), &db.TextQuery{Query: "q", TopK: 1}); err == nil {
		t.Error("expected error for missing index name")
	}
	if _, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "i", TopK: 1}); err == nil {
		t.Error("expected error for missing query")
	}
	if _, err := s.SearchText(context.Background(), &db.TextQuery{IndexName: "i", Query: "q"}); err == nil {
		t.Error("expected error for zero topK")
	}
}
