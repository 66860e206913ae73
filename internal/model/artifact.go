package model

// ArtifactType classifies a catalog artifact.
type ArtifactType string

const (
	ArtifactStage    ArtifactType = "stage"
	ArtifactRole     ArtifactType = "role"
	ArtifactSoftware ArtifactType = "software"
	ArtifactDocument ArtifactType = "document"
	ArtifactMetric   ArtifactType = "metric"
	ArtifactProcess  ArtifactType = "process"
)

// String returns the string representation of the artifact type.
func (t ArtifactType) String() string {
	return string(t)
}

// IsValid checks whether the artifact type is a known value.
func (t ArtifactType) IsValid() bool {
	switch t {
	case ArtifactStage, ArtifactRole, ArtifactSoftware, ArtifactDocument, ArtifactMetric, ArtifactProcess:
		return true
	}
	return false
}

// Artifact is a catalog entry that can be placed on a canvas.
type Artifact struct {
	ID          string         `json:"id"`
	Type        ArtifactType   `json:"type"`
	Subtype     string         `json:"subtype"`
	DisplayName string         `json:"displayName"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	ColorToken  string         `json:"colorToken"`
	Category    string         `json:"category,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
