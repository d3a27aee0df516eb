package services

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

func TestEmbedTextsDedupesAndCaches(t *testing.T) {
	ai := &fakeAI{}
	cache := newMemCache()
	svc := NewEmbeddingService(logger.Nop(), ai, cache)

	vecs, err := svc.EmbedTexts(context.Background(), []string{"abc", "de", "abc"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if len(vecs) != 3 || vecs[0][0] != 3 || vecs[1][0] != 2 || vecs[2][0] != 3 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
	if len(ai.embedSeen) != 1 || len(ai.embedSeen[0]) != 2 {
		t.Fatalf("expected one provider call with 2 unique texts, got %v", ai.embedSeen)
	}
	if cache.ttl != embeddingCacheTTL {
		t.Fatalf("ttl = %v", cache.ttl)
	}
	for k := range cache.data {
		if !strings.HasPrefix(k, "moralgraph:embed:fake-embed:") {
			t.Fatalf("unexpected cache key %q", k)
		}
	}

	if _, err := svc.EmbedTexts(context.Background(), []string{"de", "abc"}); err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if ai.embedCalls != 1 {
		t.Fatalf("second call should be served from cache, provider calls=%d", ai.embedCalls)
	}
}

func TestEmbedTextsWithoutCache(t *testing.T) {
	ai := &fakeAI{}
	svc := NewEmbeddingService(logger.Nop(), ai, nil)
	for i := 0; i < 2; i++ {
		if _, err := svc.EmbedTexts(context.Background(), []string{"x"}); err != nil {
			t.Fatalf("EmbedTexts: %v", err)
		}
	}
	if ai.embedCalls != 2 {
		t.Fatalf("expected 2 provider calls without cache, got %d", ai.embedCalls)
	}
}
