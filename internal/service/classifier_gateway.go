package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/GTDGit/gtd_forecast/internal/metrics"
	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
	"github.com/GTDGit/gtd_forecast/pkg/llm"
)

// ChatCompleter is the subset of *llm.Client used by GatewayClassifier.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// GatewayClassifier classifies through an OpenAI-compatible chat-completions
// endpoint, forcing a generate_forecasts tool call.
type GatewayClassifier struct {
	client ChatCompleter
	model  string
}

// NewGatewayClassifier creates a GatewayClassifier.
func NewGatewayClassifier(client ChatCompleter, model string) *GatewayClassifier {
	return &GatewayClassifier{client: client, model: model}
}

// Name identifies the provider in logs and metrics.
func (g *GatewayClassifier) Name() string { return "gateway" }

// Classify sends the features and decodes the forced tool call.
func (g *GatewayClassifier) Classify(ctx context.Context, features []models.SalesFeature) ([]models.ForecastEntry, error) {
	ctx, span := otel.Tracer("forecast-classifier").Start(ctx, "classifier.gateway.classify")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("forecast.products", len(features)),
	)

	prompt, err := forecastUserPrompt(features)
	if err != nil {
		return nil, err
	}

	req := &llm.ChatRequest{
		Model: g.model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: forecastSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Tools:      []llm.Tool{llm.FunctionTool(forecastToolName, forecastToolDescription, forecastParameters())},
		ToolChoice: llm.ForceFunction(forecastToolName),
	}

	start := time.Now()
	resp, err := g.client.ChatCompletion(ctx, req)
	if err != nil {
		mapped := mapGatewayError(err)
		metrics.ClassifierDuration.WithLabelValues(g.Name(), "error").Observe(time.Since(start).Seconds())
		span.RecordError(mapped)
		span.SetStatus(codes.Error, "classification failed")
		return nil, mapped
	}
	metrics.ClassifierDuration.WithLabelValues(g.Name(), "ok").Observe(time.Since(start).Seconds())

	call := resp.FirstToolCall()
	if call == nil || call.Function.Arguments == "" {
		log.Warn().Str("model", g.model).Msg("Classifier response has no tool call")
		span.SetStatus(codes.Error, "missing tool call")
		return nil, fmt.Errorf("%w: response has no tool call", utils.ErrUpstream)
	}

	entries, err := parseForecastArguments([]byte(call.Function.Arguments))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed tool call")
		return nil, err
	}
	span.SetAttributes(attribute.Int("forecast.entries", len(entries)))
	return entries, nil
}

func mapGatewayError(err error) error {
	var httpErr *llm.HTTPError
	if errors.As(err, &httpErr) {
		return upstreamStatusError("gateway", httpErr.StatusCode, err)
	}
	return fmt.Errorf("%w: gateway request failed: %v", utils.ErrUpstream, err)
}
