// Package board holds the build-time geometry and timing of the keyboard.
//
// Every fixed-capacity table in the pipeline is sized from these constants,
// so nothing grows after startup.
package board

import "time"

const (
	// Rows and Cols describe one half of the keyboard.
	Rows = 4
	Cols = 5
	// UnifiedCols is the column count of the merged logical matrix. The
	// remote half occupies columns [Cols, 2*Cols).
	UnifiedCols = 2 * Cols

	// Layers is the number of keymap layers.
	Layers = 2

	// KeyBudget is the number of keys one half tracks at the same time.
	// Further presses are dropped until a slot frees.
	KeyBudget = 6

	// Rollover is the number of key slots in the keyboard report.
	Rollover = 6
)

const (
	// Debounce is the silent window after which a key is released.
	Debounce = 20 * time.Millisecond
	// SettleDelay follows every row assertion before columns are sampled.
	SettleDelay = 10 * time.Microsecond
	// HousekeepingTick is the scan and debounce cadence.
	HousekeepingTick = time.Millisecond
	// IdleAfter is how long the tracked table must stay empty before the
	// scanner waits on a column edge instead of polling.
	IdleAfter = 500 * time.Millisecond
	// IdleTimeout bounds a single edge wait so debounce and housekeeping
	// keep running with zero input.
	IdleTimeout = 100 * time.Millisecond
)
