package domain

import "time"

// ArtifactRef points at a persisted summary.
// Frequency is set when the artifact is a news summary; stores leave it empty.
type ArtifactRef struct {
	Frequency Frequency `json:"frequency,omitempty"`
	Key       string    `json:"key"`
	Location  string    `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Artifact is a persisted summary together with its markdown content.
type Artifact struct {
	Ref     ArtifactRef `json:"ref"`
	Content string      `json:"content"`
}
