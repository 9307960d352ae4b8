package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_forecast/internal/models"
)

// ForecastRepository handles data access for inventory_forecasts.
type ForecastRepository struct {
	db *sqlx.DB
}

// NewForecastRepository creates a new ForecastRepository.
func NewForecastRepository(db *sqlx.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// Upsert inserts or overwrites the forecast of (product_id, shop_id). The
// row's id and updated_at are written back into f.
func (r *ForecastRepository) Upsert(ctx context.Context, f *models.Forecast) error {
	const q = `
        INSERT INTO inventory_forecasts (
            product_id, shop_id, current_stock, daily_sales_avg, days_until_stockout,
            predicted_stockout_date, confidence_score, recommendation, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
        ON CONFLICT (product_id, shop_id) DO UPDATE SET
            current_stock = EXCLUDED.current_stock,
            daily_sales_avg = EXCLUDED.daily_sales_avg,
            days_until_stockout = EXCLUDED.days_until_stockout,
            predicted_stockout_date = EXCLUDED.predicted_stockout_date,
            confidence_score = EXCLUDED.confidence_score,
            recommendation = EXCLUDED.recommendation,
            updated_at = NOW()
        RETURNING id, updated_at`

	return r.db.QueryRowxContext(ctx, q,
		f.ProductID,
		f.ShopID,
		f.CurrentStock,
		f.DailySalesAvg,
		f.DaysUntilStockout,
		f.PredictedStockoutDate,
		f.ConfidenceScore,
		f.Recommendation,
	).Scan(&f.ID, &f.UpdatedAt)
}

// ListByShop returns the persisted forecasts of a shop with product names,
// most recently updated first.
func (r *ForecastRepository) ListByShop(ctx context.Context, shopID string) ([]models.Forecast, error) {
	const q = `
        SELECT f.id, f.product_id, f.shop_id, f.current_stock, f.daily_sales_avg,
               f.days_until_stockout, f.predicted_stockout_date, f.confidence_score,
               f.recommendation, f.updated_at, p.name AS product_name
        FROM inventory_forecasts f
        LEFT JOIN products p ON p.id = f.product_id
        WHERE f.shop_id = $1
        ORDER BY f.updated_at DESC, p.name`

	var forecasts []models.Forecast
	if err := r.db.SelectContext(ctx, &forecasts, q, shopID); err != nil {
		return nil, err
	}
	return forecasts, nil
}
