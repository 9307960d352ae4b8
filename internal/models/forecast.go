package models

import (
	"database/sql"
	"strings"
	"time"
)

// RiskLevel is the model's qualitative stockout urgency for a product.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskWarning  RiskLevel = "warning"
	RiskHealthy  RiskLevel = "healthy"
)

// RiskLevels lists the accepted risk levels in schema order.
var RiskLevels = []RiskLevel{RiskCritical, RiskWarning, RiskHealthy}

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskCritical, RiskWarning, RiskHealthy:
		return true
	}
	return false
}

// Normalize trims and lower-cases r. Classifier entries keep the model's
// spelling; summaries compare normalized levels.
func (r RiskLevel) Normalize() RiskLevel {
	return RiskLevel(strings.ToLower(strings.TrimSpace(string(r))))
}

// SalesFeature is the per-product sales velocity computed on every run.
// It is never persisted on its own.
type SalesFeature struct {
	ProductID         string  `json:"id"`
	Name              string  `json:"name"`
	CurrentStock      int     `json:"currentStock"`
	MinStock          int     `json:"minStock"`
	TotalSales30Days  int     `json:"totalSales30Days"`
	AvgDailySales     float64 `json:"avgDailySales"`
	DaysUntilStockout *int    `json:"daysUntilStockout"`
}

// ForecastEntry is one product forecast as returned by the classifier.
type ForecastEntry struct {
	ProductID             string    `json:"productId"`
	ProductName           string    `json:"productName"`
	RiskLevel             RiskLevel `json:"riskLevel"`
	DaysUntilStockout     *float64  `json:"daysUntilStockout,omitempty"`
	PredictedStockoutDate *string   `json:"predictedStockoutDate,omitempty"`
	ReorderQuantity       *float64  `json:"reorderQuantity,omitempty"`
	ConfidenceScore       float64   `json:"confidenceScore"`
	Recommendation        string    `json:"recommendation"`
}

// Forecast is a row of inventory_forecasts. There is exactly one row per
// (product_id, shop_id).
type Forecast struct {
	ID                    int64           `db:"id" json:"id"`
	ProductID             string          `db:"product_id" json:"productId"`
	ShopID                string          `db:"shop_id" json:"shopId"`
	CurrentStock          int             `db:"current_stock" json:"currentStock"`
	DailySalesAvg         float64         `db:"daily_sales_avg" json:"dailySalesAvg"`
	DaysUntilStockout     sql.NullInt64   `db:"days_until_stockout" json:"-"`
	PredictedStockoutDate sql.NullTime    `db:"predicted_stockout_date" json:"-"`
	ConfidenceScore       sql.NullFloat64 `db:"confidence_score" json:"-"`
	Recommendation        sql.NullString  `db:"recommendation" json:"-"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updatedAt"`

	// Populated by list queries joining products.
	ProductName sql.NullString `db:"product_name" json:"-"`
}

// ForecastView is the JSON shape of a persisted forecast.
type ForecastView struct {
	ProductID             string   `json:"productId"`
	ProductName           string   `json:"productName,omitempty"`
	ShopID                string   `json:"shopId"`
	CurrentStock          int      `json:"currentStock"`
	DailySalesAvg         float64  `json:"dailySalesAvg"`
	DaysUntilStockout     *int64   `json:"daysUntilStockout"`
	PredictedStockoutDate *string  `json:"predictedStockoutDate"`
	ConfidenceScore       *float64 `json:"confidenceScore"`
	Recommendation        string   `json:"recommendation"`
	UpdatedAt             string   `json:"updatedAt"`
}

// View converts a row into its JSON representation.
func (f Forecast) View() ForecastView {
	v := ForecastView{
		ProductID:      f.ProductID,
		ProductName:    f.ProductName.String,
		ShopID:         f.ShopID,
		CurrentStock:   f.CurrentStock,
		DailySalesAvg:  f.DailySalesAvg,
		Recommendation: f.Recommendation.String,
		UpdatedAt:      f.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if f.DaysUntilStockout.Valid {
		d := f.DaysUntilStockout.Int64
		v.DaysUntilStockout = &d
	}
	if f.PredictedStockoutDate.Valid {
		s := f.PredictedStockoutDate.Time.Format("2006-01-02")
		v.PredictedStockoutDate = &s
	}
	if f.ConfidenceScore.Valid {
		c := f.ConfidenceScore.Float64
		v.ConfidenceScore = &c
	}
	return v
}

// ForecastResult is the response of a forecast run: the classifier output as
// received plus the computed features.
type ForecastResult struct {
	Forecasts    []ForecastEntry `json:"forecasts"`
	ProductsData []SalesFeature  `json:"productsData"`
}

// ForecastRun is a completed forecast run as kept in the latest-run cache.
type ForecastRun struct {
	RunID        string          `json:"runId"`
	ShopID       string          `json:"shopId"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Forecasts    []ForecastEntry `json:"forecasts"`
	ProductsData []SalesFeature  `json:"productsData"`
	Persisted    int             `json:"persisted"`
	Failed       int             `json:"failed"`
	Skipped      int             `json:"skipped"`
}
