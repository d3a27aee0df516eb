package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type fakeAI struct {
	embedCalls int32
	jsonCalls  int32
	responses  []map[string]any

	mu        sync.Mutex
	embedSeen [][]string
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	atomic.AddInt32(&f.embedCalls, 1)
	f.mu.Lock()
	f.embedSeen = append(f.embedSeen, append([]string(nil), inputs...))
	f.mu.Unlock()
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = []float32{float32(len(in)), 1}
	}
	return out, nil
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	n := int(atomic.AddInt32(&f.jsonCalls, 1)) - 1
	if n >= len(f.responses) {
		n = len(f.responses) - 1
	}
	return f.responses[n], nil
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "  ok  ", nil
}

func (f *fakeAI) EmbeddingModel() string { return "fake-embed" }

type memCache struct {
	mu   sync.Mutex
	data map[string][]float32
	ttl  time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]float32{}} }

func (m *memCache) GetVectors(ctx context.Context, keys []string) (map[string][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]float32{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memCache) SetVectors(ctx context.Context, entries map[string][]float32, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl = ttl
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func (m *memCache) Close() error { return nil }
