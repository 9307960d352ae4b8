package events

import (
	"time"

	"github.com/GTDGit/gtd_forecast/internal/models"
)

// Event types
const (
	EventTypeForecastGenerated = "inventory.forecast.generated"
)

// ForecastGeneratedEvent announces a finished forecast run of a shop.
type ForecastGeneratedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	ShopID      string    `json:"shop_id"`
	Products    int       `json:"products"`
	Critical    int       `json:"critical"`
	Warning     int       `json:"warning"`
	Healthy     int       `json:"healthy"`
	Persisted   int       `json:"persisted"`
	Failed      int       `json:"failed"`
	CriticalIDs []string  `json:"critical_product_ids"`
}

// NewForecastGeneratedEvent summarizes a run. Risk levels are compared
// case-insensitively; entries with an unknown level are not counted.
func NewForecastGeneratedEvent(run *models.ForecastRun) ForecastGeneratedEvent {
	event := ForecastGeneratedEvent{
		EventType:   EventTypeForecastGenerated,
		Timestamp:   run.GeneratedAt,
		RunID:       run.RunID,
		ShopID:      run.ShopID,
		Products:    len(run.ProductsData),
		Persisted:   run.Persisted,
		Failed:      run.Failed,
		CriticalIDs: []string{},
	}
	for _, f := range run.Forecasts {
		switch f.RiskLevel.Normalize() {
		case models.RiskCritical:
			event.Critical++
			event.CriticalIDs = append(event.CriticalIDs, f.ProductID)
		case models.RiskWarning:
			event.Warning++
		case models.RiskHealthy:
			event.Healthy++
		}
	}
	return event
}
