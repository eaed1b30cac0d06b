package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLivingStipendByHousehold(t *testing.T) {
	policy := DefaultStipendPolicy()

	tests := []struct {
		name          string
		householdType HouseholdType
		children      int
		expected      float64
	}{
		{"Single without children", Single, 0, 1200},
		{"Single with two children", Single, 2, 1800},
		{"Couple without children", Couple, 0, 1600},
		{"Couple with one child", Couple, 1, 1900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.LivingStipend(tt.householdType, tt.children, 0, 0))
		})
	}
}

func TestLivingStipendSecondAdult(t *testing.T) {
	policy := DefaultStipendPolicy()
	policy.LivingMode = LivingStipendSecondAdult

	// 1000 base + 400 second adult + 2 × 300 children
	assert.Equal(t, 2000.0, policy.LivingStipend(Couple, 2, 520, 0), "earning partner")
	assert.Equal(t, 1600.0, policy.LivingStipend(Couple, 2, 0, 0), "partner without income")
}

func TestLivingStipendIncomeTiersStack(t *testing.T) {
	policy := DefaultStipendPolicy()
	policy.IncomeTiers = DefaultIncomeTiers()

	tests := []struct {
		income   float64
		expected float64
	}{
		{3000, 1200},
		{4000, 1200},
		{4500, 1400},
		{6500, 1700},
		{9000, 2100},
	}

	previous := 0.0
	for _, tt := range tests {
		got := policy.LivingStipend(Single, 0, 0, tt.income)
		assert.Equal(t, tt.expected, got, "income %v", tt.income)
		assert.GreaterOrEqual(t, got, previous, "stipend decreased at income %v", tt.income)
		previous = got
	}
}

func TestDefaultOperatingStipend(t *testing.T) {
	tests := []struct {
		name     string
		area     float64
		rate     float64
		expected float64
	}{
		{"80 m² at 4.00", 80, 4.0, 320},
		{"No area falls back to 120 m²", 0, 4.0, 480},
		{"Custom rate", 140, 3.5, 490},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultOperatingStipend(tt.area, tt.rate))
		})
	}
}

func TestDefaultMaintenanceBuffer(t *testing.T) {
	tests := []struct {
		name       string
		area       float64
		areaScaled bool
		expected   float64
	}{
		{"Flat reserve", 140, false, 250},
		{"Area scaled", 240, true, 240},
		{"Area scaled floored", 80, true, 200},
		{"Area scaled fallback area", 0, true, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultMaintenanceBuffer(tt.area, tt.areaScaled))
		})
	}
}

func TestDefaultLivingStipend(t *testing.T) {
	assert.Equal(t, 1200.0, DefaultLivingStipend(Single, 0))
}

func TestStipendOverride(t *testing.T) {
	s := NewStipend(1200, nil)
	assert.Equal(t, 1200.0, s.Effective)
	assert.False(t, s.Overridden())

	override := 1500.0
	s = NewStipend(1200, &override)
	assert.Equal(t, Stipend{Default: 1200, Effective: 1500}, s)
	assert.True(t, s.Overridden())
}
