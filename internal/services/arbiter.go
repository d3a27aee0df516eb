package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/observability"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/platform/openai"
)

// Arbiter runs registered prompts and decodes their output into typed,
// validated structs.
type Arbiter interface {
	Generate(ctx context.Context, name prompts.PromptName, in prompts.Input, out prompts.Validatable) error
	GenerateText(ctx context.Context, instructions string, message string) (string, error)
}

type arbiter struct {
	log     *logger.Logger
	ai      openai.Client
	retries int
}

func NewArbiter(baseLog *logger.Logger, ai openai.Client) Arbiter {
	return &arbiter{
		log:     baseLog.With("service", "Arbiter"),
		ai:      ai,
		retries: 1,
	}
}

func (a *arbiter) Generate(ctx context.Context, name prompts.PromptName, in prompts.Input, out prompts.Validatable) error {
	if a.ai == nil {
		return fmt.Errorf("arbiter: provider not configured")
	}
	if out == nil {
		return fmt.Errorf("arbiter: nil output")
	}
	p, err := prompts.Build(name, in)
	if err != nil {
		return apierr.InvalidArgument(err.Error())
	}

	ctx, span := observability.Tracer().Start(ctx, "arbiter.generate")
	span.SetAttributes(attribute.String("prompt", p.Name), attribute.Int("prompt_version", p.Version))
	defer span.End()

	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		obj, err := a.ai.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("arbiter %s: %w", p.Name, err)
		}
		if lastErr = decodeInto(obj, out); lastErr == nil {
			return nil
		}
		a.log.Warn("arbiter output rejected",
			"prompt", p.Name,
			"attempt", attempt+1,
			"error", lastErr.Error(),
		)
	}
	span.RecordError(lastErr)
	return apierr.SchemaViolation(fmt.Sprintf("%s: %v", p.Name, lastErr))
}

func decodeInto(obj map[string]any, out prompts.Validatable) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("re-encode: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return out.Validate()
}

func (a *arbiter) GenerateText(ctx context.Context, instructions string, message string) (string, error) {
	if a.ai == nil {
		return "", fmt.Errorf("arbiter: provider not configured")
	}
	text, err := a.ai.GenerateText(ctx, instructions, message)
	if err != nil {
		return "", fmt.Errorf("arbiter text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
