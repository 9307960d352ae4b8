package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/GTDGit/gtd_forecast/internal/metrics"
	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// GeminiClassifier classifies through Gemini function calling.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a Gemini client for the given API key.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

// Name identifies the provider in logs and metrics.
func (g *GeminiClassifier) Name() string { return "gemini" }

// Close releases the underlying client.
func (g *GeminiClassifier) Close() error { return g.client.Close() }

// Classify asks the model to call generate_forecasts and decodes its arguments.
func (g *GeminiClassifier) Classify(ctx context.Context, features []models.SalesFeature) ([]models.ForecastEntry, error) {
	ctx, span := otel.Tracer("forecast-classifier").Start(ctx, "classifier.gemini.classify")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("forecast.products", len(features)),
	)

	prompt, err := forecastUserPrompt(features)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(forecastSystemPrompt))
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{forecastFunctionDeclaration()},
	}}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{forecastToolName},
		},
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		mapped := mapGeminiError(err)
		metrics.ClassifierDuration.WithLabelValues(g.Name(), "error").Observe(time.Since(start).Seconds())
		span.RecordError(mapped)
		span.SetStatus(codes.Error, "classification failed")
		return nil, mapped
	}
	metrics.ClassifierDuration.WithLabelValues(g.Name(), "ok").Observe(time.Since(start).Seconds())

	entries, err := forecastsFromGemini(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed function call")
		return nil, err
	}
	return entries, nil
}

// forecastsFromGemini finds the generate_forecasts call among the candidates.
func forecastsFromGemini(resp *genai.GenerateContentResponse) ([]models.ForecastEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", utils.ErrUpstream)
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			call, ok := part.(genai.FunctionCall)
			if !ok || call.Name != forecastToolName {
				continue
			}
			raw, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("%w: unencodable function args: %v", utils.ErrUpstream, err)
			}
			return parseForecastArguments(raw)
		}
	}
	return nil, fmt.Errorf("%w: response has no %s call", utils.ErrUpstream, forecastToolName)
}

// forecastFunctionDeclaration mirrors forecastParameters in genai's schema types.
func forecastFunctionDeclaration() *genai.FunctionDeclaration {
	riskEnum := make([]string, 0, len(models.RiskLevels))
	for _, r := range models.RiskLevels {
		riskEnum = append(riskEnum, string(r))
	}

	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"productId":             {Type: genai.TypeString},
			"productName":           {Type: genai.TypeString},
			"riskLevel":             {Type: genai.TypeString, Enum: riskEnum},
			"daysUntilStockout":     {Type: genai.TypeNumber},
			"predictedStockoutDate": {Type: genai.TypeString},
			"reorderQuantity":       {Type: genai.TypeNumber},
			"confidenceScore":       {Type: genai.TypeNumber, Description: "0-100"},
			"recommendation":        {Type: genai.TypeString},
		},
		Required: forecastRequiredFields,
	}

	return &genai.FunctionDeclaration{
		Name:        forecastToolName,
		Description: forecastToolDescription,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"forecasts": {Type: genai.TypeArray, Items: item},
			},
			Required: []string{"forecasts"},
		},
	}
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return upstreamStatusError("gemini", apiErr.Code, err)
	}
	return fmt.Errorf("%w: gemini request failed: %v", utils.ErrUpstream, err)
}
