package model

import "errors"

// Per-game extraction failures. The game is skipped and logged; the rest of
// the tournament is still processed.
var (
	// ErrMissingRequiredFact marks a game lacking a fact every completed game has
	// (no champion kills, no roster, no winner from any source).
	ErrMissingRequiredFact = errors.New("missing required fact")
	// ErrMissingSnapshotData marks a game without a single stats_update event.
	ErrMissingSnapshotData = errors.New("missing snapshot data")
)
