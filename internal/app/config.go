package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/moralgraph-backend/internal/data/db"
	"github.com/yungbote/moralgraph-backend/internal/jobs/worker"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/sampler"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/summary"
	"github.com/yungbote/moralgraph-backend/internal/platform/envutil"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Server         ServerConfig               `yaml:"server"`
	Database       db.Config                  `yaml:"database"`
	LLM            LLMConfig                  `yaml:"llm"`
	Redis          RedisConfig                `yaml:"redis"`
	Neo4j          Neo4jConfig                `yaml:"neo4j"`
	Worker         worker.Config              `yaml:"worker"`
	Dedupe         steps.DedupeConfig         `yaml:"dedupe"`
	ContextsDedupe steps.ContextsDedupeConfig `yaml:"contexts_dedupe"`
	Hypotheses     steps.HypothesesConfig     `yaml:"hypotheses"`
	Sampler        sampler.Weights            `yaml:"sampler"`
	Summary        SummaryConfig              `yaml:"summary"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	Mode        string   `yaml:"mode"`
	ServiceName string   `yaml:"service_name"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LLMConfig picks the provider; empty models keep the provider defaults.
type LLMConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// Neo4jConfig enables graph_sync when URI is set.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type SummaryConfig struct {
	Damping       float64 `yaml:"damping"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

func (s SummaryConfig) Options() summary.Options {
	return summary.Options{
		Damping:       s.Damping,
		MaxIterations: s.MaxIterations,
		Tolerance:     s.Tolerance,
	}
}

func DefaultConfig() Config {
	return Config{
		Server:         ServerConfig{Port: "8080", Mode: "development", ServiceName: "moralgraph"},
		Database:       db.Config{Driver: db.DriverPostgres},
		LLM:            LLMConfig{Provider: ProviderOpenAI},
		Neo4j:          Neo4jConfig{User: "neo4j"},
		Worker:         worker.DefaultConfig(),
		Dedupe:         steps.DefaultDedupeConfig(),
		ContextsDedupe: steps.DefaultContextsDedupeConfig(),
		Hypotheses:     steps.DefaultHypothesesConfig(),
		Sampler:        sampler.DefaultWeights(),
		Summary: SummaryConfig{
			Damping:       summary.DefaultDamping,
			MaxIterations: summary.DefaultMaxIterations,
			Tolerance:     summary.DefaultTolerance,
		},
	}
}

// LoadConfig layers defaults, the optional CONFIG_FILE (with ${VAR}
// expansion) and environment overrides, in that order.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := DefaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = envutil.String("PORT", cfg.Server.Port)
	cfg.Server.Mode = envutil.String("LOG_MODE", cfg.Server.Mode)
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	cfg.Database.Driver = envutil.String("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("DATABASE_DSN", cfg.Database.DSN)

	cfg.LLM.Provider = strings.ToLower(envutil.String("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = envutil.String("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.EmbedModel = envutil.String("LLM_EMBED_MODEL", cfg.LLM.EmbedModel)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)

	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)

	cfg.Worker.Concurrency = envutil.Int("WORKER_CONCURRENCY", cfg.Worker.Concurrency)
	cfg.Worker.MaxAttempts = envutil.Int("WORKER_MAX_ATTEMPTS", cfg.Worker.MaxAttempts)
	cfg.Worker.RetryDelay = envutil.Duration("WORKER_RETRY_DELAY", cfg.Worker.RetryDelay)
	cfg.Worker.StaleRunning = envutil.Duration("WORKER_STALE_RUNNING", cfg.Worker.StaleRunning)

	cfg.Dedupe.BatchLimit = envutil.Int("DEDUPE_BATCH_LIMIT", cfg.Dedupe.BatchLimit)
	cfg.Dedupe.SmallBatchMax = envutil.Int("DEDUPE_SMALL_BATCH_MAX", cfg.Dedupe.SmallBatchMax)
	cfg.Dedupe.CandidateMaxDistance = envutil.Float("DEDUPE_CANDIDATE_MAX_DISTANCE", cfg.Dedupe.CandidateMaxDistance)
	cfg.Dedupe.NearIdenticalDistance = envutil.Float("DEDUPE_NEAR_IDENTICAL_DISTANCE", cfg.Dedupe.NearIdenticalDistance)
	cfg.Dedupe.DBSCANEps = envutil.Float("DEDUPE_DBSCAN_EPS", cfg.Dedupe.DBSCANEps)
	cfg.Dedupe.DBSCANMinPoints = envutil.Int("DEDUPE_DBSCAN_MIN_POINTS", cfg.Dedupe.DBSCANMinPoints)

	cfg.Hypotheses.TopK = envutil.Int("HYPOTHESES_TOP_K", cfg.Hypotheses.TopK)
	cfg.Hypotheses.RankedExtra = envutil.Int("HYPOTHESES_RANKED_EXTRA", cfg.Hypotheses.RankedExtra)
	cfg.Hypotheses.ReverseConcurrency = envutil.Int("HYPOTHESES_REVERSE_CONCURRENCY", cfg.Hypotheses.ReverseConcurrency)

	cfg.Sampler.Popularity = envutil.Float("SAMPLER_POPULARITY", cfg.Sampler.Popularity)
	cfg.Sampler.Convergence = envutil.Float("SAMPLER_CONVERGENCE", cfg.Sampler.Convergence)
	cfg.Sampler.Sparsity = envutil.Float("SAMPLER_SPARSITY", cfg.Sampler.Sparsity)

	cfg.Summary.Damping = envutil.Float("SUMMARY_DAMPING", cfg.Summary.Damping)
	cfg.Summary.MaxIterations = envutil.Int("SUMMARY_MAX_ITERATIONS", cfg.Summary.MaxIterations)
	cfg.Summary.Tolerance = envutil.Float("SUMMARY_TOLERANCE", cfg.Summary.Tolerance)
}

func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown llm.provider %q", c.LLM.Provider)
	}
	switch strings.ToLower(c.Database.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("config: sampler: %w", err)
	}
	if c.Summary.Damping <= 0 || c.Summary.Damping >= 1 {
		return fmt.Errorf("config: summary.damping must be in (0,1), got %v", c.Summary.Damping)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
