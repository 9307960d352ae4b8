package service

import (
	"math"

	"github.com/GTDGit/gtd_forecast/internal/models"
)

// SalesWindowDays is both the look-back window and the averaging denominator.
// A product listed for fewer days still divides by the full window.
const SalesWindowDays = 30

// ComputeSalesFeatures derives per-product sales velocity from the shop's
// products and the order lines sold inside the window. Products are returned in
// input order. A product without sales has avgDailySales 0 and no stockout
// horizon.
func ComputeSalesFeatures(products []models.ProductStock, sold []models.SoldItem) []models.SalesFeature {
	salesByProduct := make(map[string]int, len(products))
	for _, item := range sold {
		salesByProduct[item.ProductID] += item.Quantity
	}

	features := make([]models.SalesFeature, 0, len(products))
	for _, p := range products {
		total := salesByProduct[p.ID]
		stock := p.CurrentStock()
		avg := float64(total) / SalesWindowDays

		var days *int
		if avg > 0 {
			d := int(math.Floor(float64(stock) / avg))
			days = &d
		}

		features = append(features, models.SalesFeature{
			ProductID:         p.ID,
			Name:              p.Name,
			CurrentStock:      stock,
			MinStock:          p.MinStock(),
			TotalSales30Days:  total,
			AvgDailySales:     avg,
			DaysUntilStockout: days,
		})
	}
	return features
}
