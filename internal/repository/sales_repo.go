package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_forecast/internal/models"
)

// OrderStatusCompleted is the only order status counted as a sale.
const OrderStatusCompleted = "completed"

// SalesRepository reads order lines used for sales velocity.
type SalesRepository struct {
	db *sqlx.DB
}

// NewSalesRepository creates a new SalesRepository.
func NewSalesRepository(db *sqlx.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// ListCompletedSince returns the order items of completed orders of a shop
// created at or after since.
func (r *SalesRepository) ListCompletedSince(ctx context.Context, shopID string, since time.Time) ([]models.SoldItem, error) {
	const q = `
        SELECT oi.product_id, oi.quantity
        FROM order_items oi
        INNER JOIN orders o ON o.id = oi.order_id
        WHERE o.shop_id = $1
        AND o.status = $2
        AND o.created_at >= $3`

	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var items []models.SoldItem
	if err := stmt.SelectContext(ctx, &items, shopID, OrderStatusCompleted, since); err != nil {
		return nil, err
	}
	return items, nil
}
