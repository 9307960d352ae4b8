package models

import "database/sql"

// DefaultMinStockLevel is applied to products that have no inventory row.
const DefaultMinStockLevel = 10

// ProductStock is an active product of a shop joined with its inventory row.
// Inventory columns are nullable because the join is a LEFT JOIN.
type ProductStock struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Price         float64       `db:"price" json:"price"`
	Quantity      sql.NullInt64 `db:"quantity" json:"-"`
	MinStockLevel sql.NullInt64 `db:"min_stock_level" json:"-"`
}

// CurrentStock returns the inventory quantity, or 0 when the product has no
// inventory row.
func (p ProductStock) CurrentStock() int {
	if !p.Quantity.Valid {
		return 0
	}
	return int(p.Quantity.Int64)
}

// MinStock returns the minimum stock threshold, falling back to
// DefaultMinStockLevel when no inventory row exists or the threshold is unset.
func (p ProductStock) MinStock() int {
	if !p.MinStockLevel.Valid || p.MinStockLevel.Int64 == 0 {
		return DefaultMinStockLevel
	}
	return int(p.MinStockLevel.Int64)
}

// SoldItem is a single order line of a completed order inside the sales window.
type SoldItem struct {
	ProductID string `db:"product_id"`
	Quantity  int    `db:"quantity"`
}
