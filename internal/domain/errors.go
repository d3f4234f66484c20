package domain

import "errors"

var (
	// ErrIndexUnavailable means the similarity index query failed or
	// timed out. The whole ranking run aborts; no partial result.
	ErrIndexUnavailable = errors.New("similarity index unavailable")

	// ErrChunkNotFound means a chunk id could not be resolved against
	// the corpus store.
	ErrChunkNotFound = errors.New("policy chunk not found")

	// ErrWeightStoreCorrupt means the persisted weight configuration
	// did not parse. Ranking must refuse to run rather than silently
	// fall back to defaults.
	ErrWeightStoreCorrupt = errors.New("weight store corrupt")
)
