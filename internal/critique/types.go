// Package critique defines the core types for design critique requests and output.
package critique

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

const (
	// DefaultArtifactName is used when no file accompanies the brief.
	DefaultArtifactName = "no-file"
	// DefaultArtifactKind is used when the artifact type is not known.
	DefaultArtifactKind = "unknown"
)

// Request is the input to a single review.
type Request struct {
	Brief        string `json:"brief" yaml:"brief"`
	ArtifactName string `json:"artifact_name,omitempty" yaml:"artifact_name"`
	ArtifactKind string `json:"artifact_kind,omitempty" yaml:"artifact_kind"`
}

// WithDefaults returns a copy of r with empty artifact fields set to their defaults.
func (r Request) WithDefaults() Request {
	if strings.TrimSpace(r.ArtifactName) == "" {
		r.ArtifactName = DefaultArtifactName
	}
	if strings.TrimSpace(r.ArtifactKind) == "" {
		r.ArtifactKind = DefaultArtifactKind
	}
	return r
}

// HasBrief reports whether the brief contains anything other than whitespace.
func (r Request) HasBrief() bool {
	return strings.TrimSpace(r.Brief) != ""
}

// BriefHash is the SHA-256 of the brief, for recording which input a
// review answered without storing the brief itself.
func (r Request) BriefHash() string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(r.Brief)))
}

// Critique is the structured review returned by the model.
type Critique struct {
	Summary       string   `json:"summary"`
	Scores        Scores   `json:"scores"`
	ProductValue  string   `json:"product_value"`
	PriorityFixes []string `json:"priority_fixes"`
	Suggestions   []string `json:"suggestions"`
}

// Scores holds the per-dimension ratings on a 0-10 scale.
type Scores struct {
	VisualHierarchy float64 `json:"visual_hierarchy"`
	Typography      float64 `json:"typography"`
	Color           float64 `json:"color"`
	Accessibility   float64 `json:"accessibility"`
	Usability       float64 `json:"usability"`
	EmotionalTone   string  `json:"emotional_tone"`
}
