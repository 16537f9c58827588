package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dropshipping-service/internal/adapters"
	"dropshipping-service/internal/models"
)

func TestResalePrice(t *testing.T) {
	assert.Equal(t, 13.0, ResalePrice(10.0, 30))
	assert.Equal(t, 15.0, ResalePrice(10.0, 50))
	assert.Equal(t, 10.0, ResalePrice(10.0, 0))
	// Rounds to cents
	assert.Equal(t, 13.33, ResalePrice(10.25, 30))
}

func TestRepricePreservesMargin(t *testing.T) {
	item := &models.ExternalCatalogItem{
		SupplierCost: 10.00,
		ResalePrice:  13.00,
	}

	// Cost rises to 12.00; the 30% effective margin must hold
	assert.Equal(t, 15.60, Reprice(item, 12.00))

	// Cost drops; margin still holds
	assert.Equal(t, 10.40, Reprice(item, 8.00))
}

func TestRepriceFallsBackToStoredMargin(t *testing.T) {
	item := &models.ExternalCatalogItem{
		SupplierCost:  0,
		MarginPercent: 25,
	}
	assert.Equal(t, 12.50, Reprice(item, 10.00))
}

func TestChangePercent(t *testing.T) {
	assert.InDelta(t, 11.0, ChangePercent(100, 111), 1e-9)
	assert.InDelta(t, 9.0, ChangePercent(100, 109), 1e-9)
	assert.InDelta(t, 50.0, ChangePercent(100, 50), 1e-9)
	assert.Equal(t, 0.0, ChangePercent(0, 42))
}

func TestPassesFilters(t *testing.T) {
	p := &adapters.NormalizedProduct{
		Cost:     20.0,
		Rating:   4.2,
		Category: "Electronics",
	}

	assert.True(t, PassesFilters(p, models.SupplierConfig{}))
	assert.True(t, PassesFilters(p, models.SupplierConfig{MinPrice: 10, MaxPrice: 30}))
	assert.False(t, PassesFilters(p, models.SupplierConfig{MinPrice: 25}))
	assert.False(t, PassesFilters(p, models.SupplierConfig{MaxPrice: 15}))
	assert.False(t, PassesFilters(p, models.SupplierConfig{MinRating: 4.5}))
	assert.True(t, PassesFilters(p, models.SupplierConfig{AllowedCategories: []string{"Electronics", "Toys"}}))
	assert.False(t, PassesFilters(p, models.SupplierConfig{AllowedCategories: []string{"Toys"}}))
}
