package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/moralgraph-backend/internal/data/db"
	"github.com/yungbote/moralgraph-backend/internal/platform/gemini"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/platform/neo4jdb"
	"github.com/yungbote/moralgraph-backend/internal/platform/openai"
	"github.com/yungbote/moralgraph-backend/internal/platform/redisx"
)

type Clients struct {
	Postgres *db.PostgresService
	LLM      openai.Client
	Redis    *redisx.Client
	Neo4j    *neo4jdb.Client

	gemini *gemini.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	pg, err := db.NewPostgresService(log, cfg.Database)
	if err != nil {
		return c, fmt.Errorf("init database: %w", err)
	}
	c.Postgres = pg

	switch cfg.LLM.Provider {
	case ProviderGemini:
		gcfg := gemini.ConfigFromEnv()
		if cfg.LLM.Model != "" {
			gcfg.ModelName = cfg.LLM.Model
		}
		if cfg.LLM.EmbedModel != "" {
			gcfg.EmbedModel = cfg.LLM.EmbedModel
		}
		gc, err := gemini.NewClient(ctx, log, gcfg)
		if err != nil {
			c.Close(ctx)
			return c, fmt.Errorf("init gemini client: %w", err)
		}
		c.gemini = gc
		c.LLM = gc
	default:
		ocfg := openai.ConfigFromEnv()
		if cfg.LLM.Model != "" {
			ocfg.Model = cfg.LLM.Model
		}
		if cfg.LLM.EmbedModel != "" {
			ocfg.EmbedModel = cfg.LLM.EmbedModel
		}
		oc, err := openai.NewClient(log, ocfg)
		if err != nil {
			c.Close(ctx)
			return c, fmt.Errorf("init openai client: %w", err)
		}
		c.LLM = oc
	}

	// Redis and Neo4j are optional; New returns nil when unconfigured.
	rc, err := redisx.New(log, cfg.Redis.Addr)
	if err != nil {
		c.Close(ctx)
		return c, fmt.Errorf("init redis: %w", err)
	}
	c.Redis = rc

	if strings.TrimSpace(cfg.Neo4j.URI) != "" {
		ncfg := neo4jdb.ConfigFromEnv()
		ncfg.URI = cfg.Neo4j.URI
		ncfg.User = cfg.Neo4j.User
		ncfg.Password = cfg.Neo4j.Password
		if cfg.Neo4j.Database != "" {
			ncfg.Database = cfg.Neo4j.Database
		}
		nc, err := neo4jdb.New(log, ncfg)
		if err != nil {
			c.Close(ctx)
			return c, fmt.Errorf("init neo4j: %w", err)
		}
		c.Neo4j = nc
	}
	return c, nil
}

// VectorCache is nil when redis is not configured.
func (c *Clients) VectorCache() redisx.VectorCache {
	if c == nil || c.Redis == nil {
		return nil
	}
	return c.Redis
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.gemini != nil {
		_ = c.gemini.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}
