package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeatureRun records one dataset assembly run persisted to the feature sink.
type FeatureRun struct {
	ID        uuid.UUID `json:"id"`
	Train     bool      `json:"train"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeatureRun constructs a run record with a fresh identifier.
func NewFeatureRun(train bool, rows, columns int) FeatureRun {
	return FeatureRun{
		ID:        uuid.New(),
		Train:     train,
		Rows:      rows,
		Columns:   columns,
		CreatedAt: time.Now().UTC(),
	}
}
