package generation

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/infrastructure/metrics"
	"github.com/mattxslv/phoenix/internal/infrastructure/observability"
)

// The upstream formatter occasionally appends a literal "undefined" to the
// response text. Strip it before anyone persists or renders it.
var trailingUndefined = regexp.MustCompile(`(?i)undefined\s*$`)

// Gateway wraps the generation collaborator with the shared quota and
// response normalization. It never surfaces a failure to the caller: any
// upstream error or empty result becomes an empty string, logged here. The
// caller decides whether an empty response is acceptable to persist.
type Gateway struct {
	generator Generator
	quota     Quota
	log       zerolog.Logger
}

// NewGateway constructs the gateway around a generator and the shared quota.
func NewGateway(generator Generator, quota Quota, log zerolog.Logger) *Gateway {
	return &Gateway{
		generator: generator,
		quota:     quota,
		log:       log.With().Str("component", "generation-gateway").Logger(),
	}
}

// Respond produces the generated text for a prompt given prior exchanges as
// context. It blocks on the quota before issuing the request.
func (g *Gateway) Respond(ctx context.Context, prompt string, exchanges []Exchange) string {
	if err := g.acquire(ctx); err != nil {
		return ""
	}

	history := make([]Message, 0, len(exchanges)*2)
	for _, exchange := range exchanges {
		pair := exchange.Messages()
		history = append(history, pair[0], pair[1])
	}

	ctx, span := observability.StartGenerationSpan(ctx, "respond", len(history))
	defer span.End()

	start := time.Now()
	raw, err := g.generator.Complete(ctx, prompt, history)
	metrics.GenerationDuration.WithLabelValues("respond").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues("respond", "error").Inc()
		observability.RecordError(span, err)
		g.log.Error().Err(err).Int("history_len", len(history)).Msg("generation request failed")
		return ""
	}

	metrics.GenerationRequestsTotal.WithLabelValues("respond", "ok").Inc()
	return Normalize(raw)
}

// Summarize performs a one-shot, context-free title generation with the same
// failure-swallowing contract as Respond. Used only at conversation creation.
func (g *Gateway) Summarize(ctx context.Context, prompt string) string {
	if err := g.acquire(ctx); err != nil {
		return ""
	}

	ctx, span := observability.StartGenerationSpan(ctx, "summarize", 0)
	defer span.End()

	start := time.Now()
	raw, err := g.generator.SummarizeTitle(ctx, prompt)
	metrics.GenerationDuration.WithLabelValues("summarize").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues("summarize", "error").Inc()
		observability.RecordError(span, err)
		g.log.Error().Err(err).Msg("title generation failed")
		return ""
	}

	metrics.GenerationRequestsTotal.WithLabelValues("summarize", "ok").Inc()
	return Normalize(raw)
}

func (g *Gateway) acquire(ctx context.Context) error {
	start := time.Now()
	err := g.quota.Acquire(ctx)
	metrics.RateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		g.log.Warn().Err(err).Msg("quota wait aborted")
	}
	return err
}

// Normalize strips the trailing "undefined" artifact and surrounding
// whitespace. The result may legitimately be empty.
func Normalize(raw string) string {
	return strings.TrimSpace(trailingUndefined.ReplaceAllString(raw, ""))
}
