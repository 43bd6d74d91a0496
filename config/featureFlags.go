package config

import (
	"os"
	"strings"
)

// StockAdjustPolicy controls what happens when a consumption would drive a
// stock quantity negative.
//
// - "clamp" (default): apply as much as available, record the applied delta.
// - "reject": fail the adjustment with the available quantity in the error.
//
// Set via env:
// - STOCK_ADJUST_POLICY=clamp|reject
//
// Pending product clarification; the dyeing floor relies on clamp today.
func StockAdjustPolicy() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STOCK_ADJUST_POLICY")))
	if v == "reject" {
		return "reject"
	}
	return "clamp"
}

// DataSourceMode selects the read-side data source for the HTTP surface.
//
// - "live" (default): gorm-backed store.
// - "fixture": in-memory fixture store (demo mode, read-only).
//
// Set via env:
// - DATA_SOURCE_MODE=live|fixture
//
// This is an explicit startup choice, never a runtime fallback triggered by
// a persistence error.
func DataSourceMode() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DATA_SOURCE_MODE")))
	if v == "fixture" {
		return "fixture"
	}
	return "live"
}
