package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/yungbote/moralgraph-backend/internal/platform/envutil"
	"github.com/yungbote/moralgraph-backend/internal/platform/httpx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/platform/openai"
)

// Config for the Gemini provider.
type Config struct {
	APIKey      string
	ModelName   string
	EmbedModel  string
	MaxRetries  int
	RetryDelay  time.Duration
	CallTimeout time.Duration
	Temperature float32
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("GEMINI_API_KEY", ""),
		ModelName:   envutil.String("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbedModel:  envutil.String("GEMINI_EMBED_MODEL", "text-embedding-004"),
		MaxRetries:  envutil.Int("GEMINI_MAX_RETRIES", 3),
		RetryDelay:  envutil.Duration("GEMINI_RETRY_DELAY", 2*time.Second),
		CallTimeout: envutil.Duration("GEMINI_TIMEOUT", 120*time.Second),
		Temperature: float32(envutil.Float("GEMINI_TEMPERATURE", 0.2)),
	}
}

// Client adapts the Gemini SDK to the same surface as the OpenAI client.
type Client struct {
	client *genai.Client
	log    *logger.Logger
	cfg    Config
}

var _ openai.Client = (*Client)(nil)

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.0-flash"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-004"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	log.Info("Gemini client initialized", "model", cfg.ModelName, "embed_model", cfg.EmbedModel)
	return &Client{client: c, log: log.With("client", "GeminiClient"), cfg: cfg}, nil
}

func (c *Client) Close() error { return c.client.Close() }

func (c *Client) EmbeddingModel() string { return c.cfg.EmbedModel }

func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	em := c.client.EmbeddingModel(c.cfg.EmbedModel)
	batch := em.NewBatch()
	for _, in := range inputs {
		s := strings.TrimSpace(in)
		if s == "" {
			s = " "
		}
		batch.AddContent(genai.Text(s))
	}
	var out [][]float32
	err := c.retry(ctx, "embed", func(callCtx context.Context) error {
		res, err := em.BatchEmbedContents(callCtx, batch)
		if err != nil {
			return err
		}
		if len(res.Embeddings) != len(inputs) {
			return fmt.Errorf("gemini embeddings: requested=%d returned=%d", len(inputs), len(res.Embeddings))
		}
		out = make([][]float32, len(inputs))
		for i, e := range res.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return fmt.Errorf("gemini embeddings: empty vector at %d", i)
			}
			out[i] = e.Values
		}
		return nil
	})
	return out, err
}

func (c *Client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal schema %s: %w", schemaName, err)
	}
	instructions := system + "\n\nRespond with a single JSON object named " + schemaName +
		" that validates against this JSON Schema:\n" + string(schemaJSON)

	var obj map[string]any
	err = c.retry(ctx, "generate_json", func(callCtx context.Context) error {
		text, gErr := c.generate(callCtx, instructions, user, "application/json")
		if gErr != nil {
			return gErr
		}
		clean := stripCodeFence(text)
		var m map[string]any
		if uErr := json.Unmarshal([]byte(clean), &m); uErr != nil {
			return fmt.Errorf("failed to parse gemini response: %w", uErr)
		}
		obj = m
		return nil
	})
	return obj, err
}

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	var out string
	err := c.retry(ctx, "generate_text", func(callCtx context.Context) error {
		text, gErr := c.generate(callCtx, system, user, "")
		if gErr != nil {
			return gErr
		}
		out = text
		return nil
	})
	return out, err
}

func (c *Client) generate(ctx context.Context, system, user, mime string) (string, error) {
	model := c.client.GenerativeModel(c.cfg.ModelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.SetTemperature(c.cfg.Temperature)
	if mime != "" {
		model.ResponseMIMEType = mime
	}
	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("unexpected response type from gemini")
	}
	return b.String(), nil
}

func (c *Client) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("Retrying Gemini request", "op", op, "attempt", attempt+1, "error", lastErr)
			if err := httpx.Sleep(ctx, httpx.JitterSleep(c.cfg.RetryDelay)); err != nil {
				return err
			}
		}
		callCtx := ctx
		var cancel context.CancelFunc
		if c.cfg.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		}
		lastErr = fn(callCtx)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("gemini %s failed after %d attempts: %w", op, c.cfg.MaxRetries, lastErr)
}

func stripCodeFence(s string) string {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
