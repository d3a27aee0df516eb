package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/platform/openai"
	"github.com/yungbote/moralgraph-backend/internal/platform/redisx"
)

const (
	embeddingCachePrefix = "moralgraph:embed:"
	embeddingCacheTTL    = 30 * 24 * time.Hour
	embeddingBatchMax    = 64
)

// EmbeddingService turns text into vectors through the configured provider,
// with a shared cache and coalescing of identical in-flight requests.
type EmbeddingService interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type embeddingService struct {
	log   *logger.Logger
	ai    openai.Client
	cache redisx.VectorCache
	ttl   time.Duration
	group singleflight.Group
}

// NewEmbeddingService accepts a nil cache.
func NewEmbeddingService(baseLog *logger.Logger, ai openai.Client, cache redisx.VectorCache) EmbeddingService {
	return &embeddingService{
		log:   baseLog.With("service", "EmbeddingService"),
		ai:    ai,
		cache: cache,
		ttl:   embeddingCacheTTL,
	}
}

func (s *embeddingService) Model() string {
	if s.ai == nil {
		return ""
	}
	return s.ai.EmbeddingModel()
}

func (s *embeddingService) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return embeddingCachePrefix + s.Model() + ":" + hex.EncodeToString(h[:])
}

func (s *embeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("embedding: provider not configured")
	}
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	keys := make([]string, len(texts))
	uniqueKeys := make([]string, 0, len(texts))
	textByKey := map[string]string{}
	for i, t := range texts {
		t = strings.TrimSpace(t)
		k := s.cacheKey(t)
		keys[i] = k
		if _, ok := textByKey[k]; !ok {
			textByKey[k] = t
			uniqueKeys = append(uniqueKeys, k)
		}
	}

	vecByKey := map[string][]float32{}
	if s.cache != nil {
		hits, err := s.cache.GetVectors(ctx, uniqueKeys)
		if err != nil {
			s.log.Warn("embedding cache read failed", "error", err)
		}
		for k, v := range hits {
			vecByKey[k] = v
		}
	}

	misses := make([]string, 0, len(uniqueKeys))
	for _, k := range uniqueKeys {
		if _, ok := vecByKey[k]; !ok {
			misses = append(misses, k)
		}
	}
	for start := 0; start < len(misses); start += embeddingBatchMax {
		end := start + embeddingBatchMax
		if end > len(misses) {
			end = len(misses)
		}
		batch := misses[start:end]
		got, err := s.embedBatch(ctx, batch, textByKey)
		if err != nil {
			return nil, err
		}
		for k, v := range got {
			vecByKey[k] = v
		}
	}

	for i, k := range keys {
		v, ok := vecByKey[k]
		if !ok || len(v) == 0 {
			return nil, fmt.Errorf("embedding: missing vector for input %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// embedBatch coalesces concurrent calls for the same set of texts.
func (s *embeddingService) embedBatch(ctx context.Context, keys []string, textByKey map[string]string) (map[string][]float32, error) {
	flightKey := strings.Join(keys, "|")
	res, err, shared := s.group.Do(flightKey, func() (any, error) {
		inputs := make([]string, len(keys))
		for i, k := range keys {
			inputs[i] = textByKey[k]
		}
		vecs, err := s.ai.Embed(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		if len(vecs) != len(keys) {
			return nil, fmt.Errorf("embedding: requested=%d returned=%d", len(keys), len(vecs))
		}
		got := make(map[string][]float32, len(keys))
		for i, k := range keys {
			got[k] = vecs[i]
		}
		if s.cache != nil {
			if err := s.cache.SetVectors(ctx, got, s.ttl); err != nil {
				s.log.Warn("embedding cache write failed", "error", err)
			}
		}
		return got, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("embedding batch coalesced", "size", len(keys))
	}
	return res.(map[string][]float32), nil
}
