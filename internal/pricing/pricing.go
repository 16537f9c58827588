// Package pricing derives resale prices from supplier costs and applies
// per-supplier catalog filters.
package pricing

import (
	"math"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
)

// ResalePrice applies a percentage margin on top of the supplier cost,
// rounded to cents
func ResalePrice(cost, marginPercent float64) float64 {
	return Round2(cost * (1 + marginPercent/100))
}

// Reprice recomputes the resale price for a new supplier cost while
// preserving the item's effective margin. An item priced at 30% margin stays
// at 30% margin whatever the cost does.
func Reprice(item *models.ExternalCatalogItem, newCost float64) float64 {
	return ResalePrice(newCost, item.CurrentMargin())
}

// ChangePercent returns the absolute percentage move from old to new.
// A zero old value reports no change.
func ChangePercent(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		return 0
	}
	return math.Abs(newValue-oldValue) / oldValue * 100
}

// PassesFilters checks a discovered product against the supplier's catalog
// filters. Unset filter fields admit everything.
func PassesFilters(p *adapters.NormalizedProduct, cfg models.SupplierConfig) bool {
	if cfg.MinPrice > 0 && p.Cost < cfg.MinPrice {
		return false
	}
	if cfg.MaxPrice > 0 && p.Cost > cfg.MaxPrice {
		return false
	}
	if cfg.MinRating > 0 && p.Rating < cfg.MinRating {
		return false
	}
	if len(cfg.AllowedCategories) > 0 {
		allowed := false
		for _, c := range cfg.AllowedCategories {
			if c == p.Category {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
