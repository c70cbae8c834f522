package replenishment

import (
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/config"
)

// Params holds the tunable thresholds of the allocation policies
type Params struct {
	TopN            int     // Size of the aggressive top group
	TopShare        float64 // Share of the budget given to the aggressive top group
	SalesShare      float64 // Share of the budget given to sold products in exploratory mode
	LookbackDays    int     // Sales lookback window
	DefaultCapacity int     // Capacity used when the request is out of range
	MaxCapacity     int     // Largest accepted machine capacity
	TrialQty        int     // Units per product in the exploratory no-sales fallback
}

// DefaultParams returns the thresholds used in production
func DefaultParams() Params {
	return Params{
		TopN:            3,
		TopShare:        0.8,
		SalesShare:      0.8,
		LookbackDays:    30,
		DefaultCapacity: 50,
		MaxCapacity:     50,
		TrialQty:        2,
	}
}

// withDefaults replaces unset or invalid fields with their default value.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.TopN <= 0 {
		p.TopN = d.TopN
	}
	if p.TopShare <= 0 || p.TopShare > 1 {
		p.TopShare = d.TopShare
	}
	if p.SalesShare <= 0 || p.SalesShare > 1 {
		p.SalesShare = d.SalesShare
	}
	if p.LookbackDays <= 0 {
		p.LookbackDays = d.LookbackDays
	}
	if p.MaxCapacity <= 0 {
		p.MaxCapacity = d.MaxCapacity
	}
	if p.DefaultCapacity <= 0 || p.DefaultCapacity > p.MaxCapacity {
		p.DefaultCapacity = p.MaxCapacity
	}
	if p.TrialQty <= 0 {
		p.TrialQty = d.TrialQty
	}
	return p
}

// Lookback returns the sales window as a duration
func (p Params) Lookback() time.Duration {
	return time.Duration(p.LookbackDays) * 24 * time.Hour
}

// ParamsFromConfig maps the engine config section; unset values fall back to defaults in NewEngine
func ParamsFromConfig(cfg config.EngineConfig) Params {
	return Params{
		TopN:            cfg.TopN,
		TopShare:        cfg.TopShare,
		SalesShare:      cfg.SalesShare,
		LookbackDays:    cfg.LookbackDays,
		DefaultCapacity: cfg.DefaultCapacity,
		MaxCapacity:     cfg.MaxCapacity,
		TrialQty:        cfg.TrialQty,
	}
}
