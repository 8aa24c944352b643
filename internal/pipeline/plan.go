package pipeline

import (
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
)

// Step declares one artifact of a page. Unfiltered steps receive the
// table as loaded instead of the filtered one.
type Step struct {
	Kind       ArtifactKind
	Title      string
	Columns    []string
	Target     string
	Components int
	Unfiltered bool
}

var threatMetrics = []string{
	dataset.ColFinancialLoss,
	dataset.ColAffectedUsers,
	dataset.ColResolutionHours,
}

// lossPredictors feed the financial loss imputation
var lossPredictors = []string{
	dataset.ColYear,
	dataset.ColResolutionHours,
	dataset.ColAffectedUsers,
}

var intrusionMetrics = []string{
	dataset.ColPacketSize,
	dataset.ColLoginAttempts,
	dataset.ColSessionDuration,
	dataset.ColIPReputation,
	dataset.ColFailedLogins,
}

// Plans lists what each page computes after filtering
var Plans = map[filter.PageID][]Step{
	filter.PageGlobalThreats: {
		{Kind: ArtifactQuality, Title: "Data quality"},
		{Kind: ArtifactDescription, Title: "Financial loss", Target: dataset.ColFinancialLoss},
		{Kind: ArtifactCorrelation, Title: "Impact correlations", Columns: threatMetrics},
		{Kind: ArtifactGroupAggregates, Title: "Financial loss by country", Columns: []string{dataset.ColCountry}, Target: dataset.ColFinancialLoss},
		{Kind: ArtifactGroupAggregates, Title: "Affected users by country", Columns: []string{dataset.ColCountry}, Target: dataset.ColAffectedUsers},
	},
	filter.PageIntrusion: {
		{Kind: ArtifactClassBalance, Title: "Attack rate", Target: dataset.ColAttackDetected},
		{Kind: ArtifactTargetCorrelations, Title: "Attack indicators", Columns: intrusionMetrics, Target: dataset.ColAttackDetected},
		{Kind: ArtifactGroupComparison, Title: "Failed logins by outcome", Columns: []string{dataset.ColAttackDetected}, Target: dataset.ColFailedLogins},
		{Kind: ArtifactAssociation, Title: "Protocol vs attack", Columns: []string{dataset.ColProtocolType}, Target: dataset.ColAttackDetected},
		{Kind: ArtifactGroupRates, Title: "Attack rate by protocol", Columns: []string{dataset.ColProtocolType}, Target: dataset.ColAttackDetected},
		{Kind: ArtifactGroupRates, Title: "Attack rate by encryption", Columns: []string{dataset.ColEncryptionUsed}, Target: dataset.ColAttackDetected},
		{Kind: ArtifactGroupAggregates, Title: "Failed logins by protocol", Columns: []string{dataset.ColProtocolType}, Target: dataset.ColFailedLogins},
	},
	filter.PageDataAnalysis: {
		{Kind: ArtifactQuality, Title: "Data quality"},
		{Kind: ArtifactMissingPattern, Title: "Financial loss gaps", Target: dataset.ColFinancialLoss},
		{
			Kind:       ArtifactImputation,
			Title:      "Financial loss imputation",
			Columns:    lossPredictors,
			Target:     dataset.ColFinancialLoss,
			Unfiltered: true,
		},
	},
	filter.PageComparative: {
		{Kind: ArtifactTrend, Title: "Incident trend"},
		{Kind: ArtifactCorrelation, Title: "Impact correlations", Columns: threatMetrics},
		{Kind: ArtifactPCA, Title: "Principal components", Columns: threatMetrics, Components: 2},
		{Kind: ArtifactTargetCorrelations, Title: "Loss drivers", Columns: []string{dataset.ColAffectedUsers, dataset.ColResolutionHours, dataset.ColYear}, Target: dataset.ColFinancialLoss},
	},
}

// params is the memoization identity of a step
func (s Step) params() map[string]interface{} {
	return map[string]interface{}{
		"columns":    s.Columns,
		"target":     s.Target,
		"components": s.Components,
	}
}
