package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_forecast/internal/models"
)

// ProductRepository reads shop products together with their inventory row.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListActiveWithStock returns the active products of a shop, each joined to at
// most one inventory row. Products without inventory come back with NULL
// quantity and min_stock_level.
func (r *ProductRepository) ListActiveWithStock(ctx context.Context, shopID string) ([]models.ProductStock, error) {
	const q = `
        SELECT p.id, p.name, p.price, inv.quantity, inv.min_stock_level
        FROM products p
        LEFT JOIN LATERAL (
            SELECT i.quantity, i.min_stock_level
            FROM inventory i
            WHERE i.product_id = p.id
            LIMIT 1
        ) inv ON true
        WHERE p.shop_id = $1 AND p.is_active = true
        ORDER BY p.name`

	var products []models.ProductStock
	if err := r.db.SelectContext(ctx, &products, q, shopID); err != nil {
		return nil, err
	}
	return products, nil
}
