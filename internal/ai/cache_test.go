package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheRoundtrip(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	stored := &AnalysisResult{
		RootCause:   "pool exhausted",
		Impact:      "latency spike",
		Suggestions: []Suggestion{{Description: "raise pool size", Code: "pool = 50"}},
		Confidence:  0.8,
		Provider:    "ollama",
		Model:       "llama3.2",
		Origin:      OriginFresh,
	}

	if err := cache.Set(ctx, "ollama", "llama3.2", "err-0123456789abcdef", stored); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "ollama", "llama3.2", "err-0123456789abcdef")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit")
	}
	if got.RootCause != stored.RootCause || got.Impact != stored.Impact {
		t.Errorf("content mismatch: %+v", got)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].Code != "pool = 50" {
		t.Errorf("suggestions mismatch: %+v", got.Suggestions)
	}
	if got.Origin != OriginCached {
		t.Errorf("expected cached origin on read, got %q", got.Origin)
	}
}

func TestCacheMissIsNotAnError(t *testing.T) {
	cache := openTestCache(t)

	got, err := cache.Get(context.Background(), "ollama", "llama3.2", "err-missing")
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestCacheKeyIncludesProviderAndModel(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	result := &AnalysisResult{RootCause: "x", Confidence: 0.5}
	if err := cache.Set(ctx, "ollama", "llama3.2", "err-1", result); err != nil {
		t.Fatal(err)
	}

	if got, _ := cache.Get(ctx, "openai", "llama3.2", "err-1"); got != nil {
		t.Error("different provider must not share entries")
	}
	if got, _ := cache.Get(ctx, "ollama", "mistral", "err-1"); got != nil {
		t.Error("different model must not share entries")
	}
	if got, _ := cache.Get(ctx, "ollama", "llama3.2", "err-1"); got == nil {
		t.Error("same key must hit")
	}
}

func TestCacheLastWriteWins(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "p", "m", "err-1", &AnalysisResult{RootCause: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, "p", "m", "err-1", &AnalysisResult{RootCause: "new"}); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get(ctx, "p", "m", "err-1")
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if got.RootCause != "new" {
		t.Errorf("expected latest write, got %q", got.RootCause)
	}

	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected a single entry, got %d", count)
	}
}

func TestCacheConcurrentWritesAllLand(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp := fmt.Sprintf("err-%016x", i)
			if err := cache.Set(ctx, "p", "m", fp, &AnalysisResult{RootCause: "x"}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent set: %v", err)
	}

	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != writers {
		t.Errorf("expected %d entries, got %d", writers, count)
	}

	for i := 0; i < writers; i++ {
		fp := fmt.Sprintf("err-%016x", i)
		got, err := cache.Get(ctx, "p", "m", fp)
		if err != nil || got == nil {
			t.Errorf("get %s after concurrent writes: %v, %+v", fp, err, got)
		}
	}
}

func TestCacheClear(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	for _, fp := range []string{"err-1", "err-2", "err-3"} {
		if err := cache.Set(ctx, "p", "m", fp, &AnalysisResult{RootCause: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected empty cache, got %d entries", count)
	}
}

func TestCacheClearOlderThanKeepsFresh(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "p", "m", "err-1", &AnalysisResult{RootCause: "x"}); err != nil {
		t.Fatal(err)
	}

	removed, err := cache.ClearOlderThan(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("fresh entry removed by age-based clean")
	}

	count, _ := cache.Count(ctx)
	if count != 1 {
		t.Errorf("expected entry to survive, got %d", count)
	}
}
