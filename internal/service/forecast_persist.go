package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_forecast/internal/metrics"
	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// PersistResult is the outcome of one forecast entry.
type PersistResult struct {
	ProductID string
	Skipped   bool  // no loaded product matched the entry
	Err       error // wraps utils.ErrPersistence
}

// PersistReport lists the per-entry results of a best-effort batch.
type PersistReport struct {
	Results []PersistResult
}

// Written counts upserted entries.
func (r PersistReport) Written() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped && res.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts entries whose upsert returned an error.
func (r PersistReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Skipped counts entries with no matching product.
func (r PersistReport) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// persistForecasts upserts every entry that matches a computed feature. Each
// write is independent: a failure is recorded and the loop moves on, and no
// transaction spans the batch.
func (s *ForecastService) persistForecasts(ctx context.Context, shopID string, entries []models.ForecastEntry, features []models.SalesFeature) PersistReport {
	byID := make(map[string]models.SalesFeature, len(features))
	for _, f := range features {
		byID[f.ProductID] = f
	}

	report := PersistReport{Results: make([]PersistResult, 0, len(entries))}
	for _, entry := range entries {
		feature, ok := byID[entry.ProductID]
		if !ok {
			log.Warn().Str("shop_id", shopID).Str("product_id", entry.ProductID).Msg("Skipping forecast for unknown product")
			metrics.PersistResults.WithLabelValues("skipped").Inc()
			report.Results = append(report.Results, PersistResult{ProductID: entry.ProductID, Skipped: true})
			continue
		}

		row := buildForecastRow(shopID, entry, feature)
		if err := s.forecasts.Upsert(ctx, row); err != nil {
			log.Error().Err(err).Str("shop_id", shopID).Str("product_id", entry.ProductID).Msg("Failed to upsert forecast")
			metrics.PersistResults.WithLabelValues("failed").Inc()
			report.Results = append(report.Results, PersistResult{
				ProductID: entry.ProductID,
				Err:       fmt.Errorf("%w: %v", utils.ErrPersistence, err),
			})
			continue
		}
		metrics.PersistResults.WithLabelValues("written").Inc()
		report.Results = append(report.Results, PersistResult{ProductID: entry.ProductID})
	}
	return report
}

// buildForecastRow combines the model's entry with the computed feature.
// Stock and sales velocity always come from the feature. The stockout horizon
// stays NULL whenever the feature has none.
func buildForecastRow(shopID string, entry models.ForecastEntry, feature models.SalesFeature) *models.Forecast {
	row := &models.Forecast{
		ProductID:     entry.ProductID,
		ShopID:        shopID,
		CurrentStock:  feature.CurrentStock,
		DailySalesAvg: feature.AvgDailySales,
		ConfidenceScore: sql.NullFloat64{
			Float64: clampConfidence(entry.ConfidenceScore),
			Valid:   true,
		},
	}

	if feature.DaysUntilStockout != nil {
		days := int64(*feature.DaysUntilStockout)
		if v, ok := modelStockoutDays(entry.DaysUntilStockout); ok {
			days = v
		}
		row.DaysUntilStockout = sql.NullInt64{Int64: days, Valid: true}
	}

	if d, ok := parseStockoutDate(entry.PredictedStockoutDate); ok {
		row.PredictedStockoutDate = sql.NullTime{Time: d, Valid: true}
	}

	if rec := strings.TrimSpace(entry.Recommendation); rec != "" {
		row.Recommendation = sql.NullString{String: rec, Valid: true}
	}
	return row
}

// modelStockoutDays floors the model's horizon when it fits the INTEGER
// column. NaN, negative and out-of-range values are rejected.
func modelStockoutDays(v *float64) (int64, bool) {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > math.MaxInt32 {
		return 0, false
	}
	return int64(math.Floor(*v)), true
}

func clampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// parseStockoutDate accepts YYYY-MM-DD or RFC 3339 values.
func parseStockoutDate(raw *string) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
