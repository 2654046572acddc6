// Package topscore persists the single best score across sessions.
package topscore

import "context"

// DefaultKey names the best-score slot.
const DefaultKey = "topScore"

// Store holds one best-score value.
type Store interface {
	// Get returns the stored best score; ok is false when none was recorded yet.
	Get(ctx context.Context) (score int, ok bool, err error)
	// SetIfHigher stores score when it beats the current best and returns the
	// resulting best along with whether it changed.
	SetIfHigher(ctx context.Context, score int) (best int, updated bool, err error)
}
