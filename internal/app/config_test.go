package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// clearEnv blanks the overrides this package reads so the host env does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "LOG_MODE", "LLM_PROVIDER", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_URI",
		"WORKER_CONCURRENCY", "WORKER_MAX_ATTEMPTS", "WORKER_RETRY_DELAY",
		"DEDUPE_BATCH_LIMIT", "DEDUPE_SMALL_BATCH_MAX", "HYPOTHESES_TOP_K",
		"SAMPLER_POPULARITY", "SAMPLER_CONVERGENCE", "SAMPLER_SPARSITY", "SUMMARY_DAMPING",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("unexpected defaults %+v", cfg.Server)
	}
	if cfg.Worker.MaxAttempts != 5 || cfg.Worker.RetryDelay != 30*time.Second {
		t.Fatalf("unexpected worker defaults %+v", cfg.Worker)
	}
	if cfg.Hypotheses.TopK != 12 || cfg.ContextsDedupe.MaxDistance != 0.1 {
		t.Fatalf("unexpected step defaults %+v %+v", cfg.Hypotheses, cfg.ContextsDedupe)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MG_TEST_NEO4J_PASSWORD", "s3cret")
	t.Setenv("CONFIG_FILE", writeConfig(t, `
server:
  port: "9000"
llm:
  provider: gemini
neo4j:
  uri: bolt://graph:7687
  password: ${MG_TEST_NEO4J_PASSWORD}
worker:
  concurrency: 2
  retry_delay: 1m
dedupe:
  batch_limit: 25
sampler:
  popularity: 0.5
  convergence: 0.25
  sparsity: 0.25
`))
	t.Setenv("PORT", "9100")
	t.Setenv("HYPOTHESES_TOP_K", "20")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Fatalf("env should override file port, got %q", cfg.Server.Port)
	}
	if cfg.LLM.Provider != ProviderGemini || cfg.Neo4j.Password != "s3cret" || cfg.Neo4j.User != "neo4j" {
		t.Fatalf("unexpected llm/neo4j %+v %+v", cfg.LLM, cfg.Neo4j)
	}
	if cfg.Worker.Concurrency != 2 || cfg.Worker.RetryDelay != time.Minute || cfg.Worker.MaxAttempts != 5 {
		t.Fatalf("unexpected worker %+v", cfg.Worker)
	}
	if cfg.Dedupe.BatchLimit != 25 || cfg.Dedupe.SmallBatchMax != 20 {
		t.Fatalf("file should only override the keys it sets: %+v", cfg.Dedupe)
	}
	if cfg.Hypotheses.TopK != 20 || cfg.Sampler.Popularity != 0.5 {
		t.Fatalf("unexpected hypotheses/sampler %+v %+v", cfg.Hypotheses, cfg.Sampler)
	}
}

func TestLoadConfigRejectsBadWeights(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAMPLER_POPULARITY", "0.9")
	if _, err := LoadConfig(nil); err == nil {
		t.Fatalf("expected weights validation error")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "llama")
	if _, err := LoadConfig(nil); err == nil {
		t.Fatalf("expected provider validation error")
	}
}
