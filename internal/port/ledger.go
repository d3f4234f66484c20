package port

import (
	"time"

	"policyrag/internal/domain"
)

// FeedbackLedger is an append-only record of ranking outcomes and their
// externally assessed quality. Records are immutable once appended;
// duplicates are legitimate repeated queries.
type FeedbackLedger interface {
	// Append durably writes one record. Each append is independent: a
	// failed append never damages records already written.
	Append(rec domain.FeedbackRecord) error

	// ReadRecent returns the last n records in insertion order.
	ReadRecent(n int) ([]domain.FeedbackRecord, error)

	// ReadSince returns all records with a timestamp at or after t, in
	// insertion order.
	ReadSince(t time.Time) ([]domain.FeedbackRecord, error)
}
