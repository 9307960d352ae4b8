package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// Classifier turns computed sales features into per-product risk forecasts.
// Implementations return errors wrapping utils.ErrRateLimited,
// utils.ErrQuotaExceeded or utils.ErrUpstream.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, features []models.SalesFeature) ([]models.ForecastEntry, error)
}

const forecastToolName = "generate_forecasts"

const forecastToolDescription = "Generate inventory forecasts for products"

const forecastSystemPrompt = `You are an inventory forecasting AI for a grocery store. Analyze sales patterns and provide predictions.

For each product, provide:
1. Risk level (critical, warning, healthy)
2. Predicted stockout date
3. Recommended reorder quantity
4. Confidence score (0-100)
5. Brief recommendation

Consider seasonal patterns, sales velocity, and current stock levels. Be concise and actionable.`

// forecastUserPrompt renders the features the model is asked to analyze.
func forecastUserPrompt(features []models.SalesFeature) (string, error) {
	payload, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode features: %w", err)
	}
	return "Analyze these products and provide forecasts:\n\n" + string(payload), nil
}

var forecastRequiredFields = []string{"productId", "productName", "riskLevel", "confidenceScore", "recommendation"}

// forecastParameters is the JSON schema of the generate_forecasts arguments.
func forecastParameters() map[string]any {
	riskEnum := make([]string, 0, len(models.RiskLevels))
	for _, r := range models.RiskLevels {
		riskEnum = append(riskEnum, string(r))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"forecasts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"productId":             map[string]any{"type": "string"},
						"productName":           map[string]any{"type": "string"},
						"riskLevel":             map[string]any{"type": "string", "enum": riskEnum},
						"daysUntilStockout":     map[string]any{"type": "number"},
						"predictedStockoutDate": map[string]any{"type": "string"},
						"reorderQuantity":       map[string]any{"type": "number"},
						"confidenceScore":       map[string]any{"type": "number", "minimum": 0, "maximum": 100},
						"recommendation":        map[string]any{"type": "string"},
					},
					"required": forecastRequiredFields,
				},
			},
		},
		"required": []string{"forecasts"},
	}
}

// parseForecastArguments decodes the tool-call arguments. Entries are kept as
// received. A payload that is not JSON or has no forecasts array is an
// upstream error.
func parseForecastArguments(raw []byte) ([]models.ForecastEntry, error) {
	var args struct {
		Forecasts *[]models.ForecastEntry `json:"forecasts"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: malformed tool arguments: %v", utils.ErrUpstream, err)
	}
	if args.Forecasts == nil {
		return nil, fmt.Errorf("%w: tool arguments have no forecasts", utils.ErrUpstream)
	}

	entries := *args.Forecasts
	if entries == nil {
		entries = []models.ForecastEntry{}
	}
	return entries, nil
}

// upstreamStatusError maps a provider HTTP status to the error taxonomy.
func upstreamStatusError(provider string, status int, cause error) error {
	switch status {
	case 429:
		return fmt.Errorf("%w: %s rate limit: %v", utils.ErrRateLimited, provider, cause)
	case 402:
		return fmt.Errorf("%w: %s credits exhausted: %v", utils.ErrQuotaExceeded, provider, cause)
	default:
		return fmt.Errorf("%w: %s returned %d: %v", utils.ErrUpstream, provider, status, cause)
	}
}
