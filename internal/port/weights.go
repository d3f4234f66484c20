package port

import (
	"time"

	"policyrag/internal/domain"
)

// WeightStore persists the versioned ranking-weight configuration.
// Load always observes a fully committed version; Save assigns the next
// version atomically with respect to concurrent readers.
type WeightStore interface {
	// Load returns the latest committed configuration, or the defaults
	// at version 0 when nothing has been saved yet. A persisted config
	// that does not parse returns an error wrapping
	// domain.ErrWeightStoreCorrupt.
	Load() (domain.WeightConfig, error)

	// Save commits cfg as the next version and records provenance
	// alongside it. The version and timestamp are assigned inside the
	// commit; the returned config carries them.
	Save(cfg domain.WeightConfig, prov WeightProvenance) (domain.WeightConfig, error)

	// History lists committed versions with their provenance, oldest
	// first.
	History() ([]WeightRevision, error)
}

// WeightProvenance records what caused a weight revision.
type WeightProvenance struct {
	FeedbackIDs []string `json:"feedback_ids,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// WeightRevision is one committed weight version plus its provenance.
type WeightRevision struct {
	Config     domain.WeightConfig `json:"config"`
	Provenance WeightProvenance    `json:"provenance"`
	SavedAt    time.Time           `json:"saved_at"`
}
