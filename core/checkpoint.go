package core

import "time"

// Checkpoint records how far a named job has progressed. Position is
// job-specific; for ingestion it is the number of leading corpus records
// that are fully indexed.
type Checkpoint struct {
	Name      string
	Position  int64
	UpdatedAt time.Time
}
