package filter

import (
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
)

// Summarize reports how much of original survived in filtered
func Summarize(original, filtered *dataset.Table) filter.Summary {
	return SummarizeCounts(original.Rows(), filtered.Rows())
}

// SummarizeCounts is Summarize over bare row counts
func SummarizeCounts(original, filtered int) filter.Summary {
	s := filter.Summary{Original: original, Filtered: filtered}
	if original <= 0 {
		s.RetainedFraction = 1
		s.Intensity = filter.IntensityLight
		return s
	}
	s.Removed = original - filtered
	s.RetainedFraction = float64(filtered) / float64(original)
	s.RemovedPercent = float64(s.Removed) / float64(original) * 100
	s.Intensity = Classify(s.RemovedPercent)
	return s
}

// Classify buckets a removed percentage
func Classify(removedPercent float64) filter.Intensity {
	switch {
	case removedPercent < 25:
		return filter.IntensityLight
	case removedPercent < 50:
		return filter.IntensityModerate
	case removedPercent < 75:
		return filter.IntensityHeavy
	default:
		return filter.IntensityVeryHeavy
	}
}
