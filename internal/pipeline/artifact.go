package pipeline

import (
	"time"

	"cyberguard/domain/core"
)

// ArtifactKind names a derived view computed on a page
type ArtifactKind string

const (
	ArtifactQuality            ArtifactKind = "quality"
	ArtifactDescription        ArtifactKind = "description"
	ArtifactCorrelation        ArtifactKind = "correlation"
	ArtifactTargetCorrelations ArtifactKind = "target_correlations"
	ArtifactPCA                ArtifactKind = "pca"
	ArtifactGroupComparison    ArtifactKind = "group_comparison"
	ArtifactAssociation        ArtifactKind = "association"
	ArtifactClassBalance       ArtifactKind = "class_balance"
	ArtifactMissingPattern     ArtifactKind = "missing_pattern"
	ArtifactImputation         ArtifactKind = "imputation"
	ArtifactTrend              ArtifactKind = "trend"
	ArtifactGroupRates         ArtifactKind = "group_rates"
	ArtifactGroupAggregates    ArtifactKind = "group_aggregates"
)

// Artifact is one computed result. Payload holds the domain/stats value
// produced by the step, e.g. *stats.CorrelationMatrix.
type Artifact struct {
	ID        core.ID      `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Title     string       `json:"title"`
	Payload   interface{}  `json:"payload"`
	Cached    bool         `json:"cached"`
	CreatedAt time.Time    `json:"created_at"`
}

// Failure records an artifact that could not be computed
type Failure struct {
	Kind  ArtifactKind `json:"kind"`
	Title string       `json:"title"`
	Err   error        `json:"-"`
}

func (f Failure) Error() string { return string(f.Kind) + ": " + f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }
