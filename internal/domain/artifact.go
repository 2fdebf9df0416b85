package domain

import "time"

// Artifact is a produced generation result as stored in the artifact cache.
type Artifact struct {
	ArtifactURL string    `json:"artifact_url"`
	Captions    []string  `json:"captions"`
	CreatedAt   time.Time `json:"created_at"`
	TTLSeconds  int       `json:"ttl_seconds"`
}

// Expired reports whether the artifact is past its TTL at the given instant.
// A zero TTL means the entry never expires on its own.
func (a Artifact) Expired(now time.Time) bool {
	if a.TTLSeconds <= 0 {
		return false
	}
	return now.After(a.CreatedAt.Add(time.Duration(a.TTLSeconds) * time.Second))
}

// HistoryEntry records one produced artifact in a subject's ledger. Entries
// are never mutated after insertion.
type HistoryEntry struct {
	ArtifactURL string    `json:"artifact_url"`
	Actions     []Action  `json:"actions"`
	InputRef    string    `json:"input_ref"`
	ProducedAt  time.Time `json:"produced_at"`
}
