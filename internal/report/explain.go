package report

import (
	"errors"
	"fmt"

	"cyberguard/domain/core"
	"cyberguard/domain/stats"
)

// Explain turns an error into a sentence a dashboard user can act on
func Explain(err error) string {
	if err == nil {
		return ""
	}
	var missing *core.DatasetMissingError
	switch {
	case errors.As(err, &missing):
		msg := fmt.Sprintf("The %s dataset is not available", missing.Name)
		if missing.Source != "" {
			msg += fmt.Sprintf(" (looked in %s)", missing.Source)
		}
		return msg + ". Place the file under DATA_DIR or point DATASET_DRIVER and DATASET_DSN at a database that has it."
	case errors.Is(err, core.ErrDatasetMissing):
		return "A required dataset is not available. Check DATA_DIR or the database settings."
	case errors.Is(err, core.ErrInsufficientFeatures):
		return "Not enough varying numeric columns remain after filtering to run this analysis. Widen the filters or select more columns."
	case errors.Is(err, core.ErrInsufficientSamples):
		return "Too few rows remain after filtering for this result to be computed. Widen the year range or relax the page filters."
	case errors.Is(err, core.ErrUnknownColumn):
		return "The analysis refers to a column that is missing or not numeric in this dataset."
	case errors.Is(err, core.ErrColumnType):
		return "The analysis refers to a column of the wrong type."
	case errors.Is(err, core.ErrSchemaMismatch):
		return "The dataset does not match its expected layout. Check the column headers and numeric cells."
	case errors.Is(err, core.ErrInvalidParameter):
		return "The request used an invalid parameter: " + err.Error() + "."
	}
	return "This result could not be computed: " + err.Error() + "."
}

// ExplainAdvisory describes the caveat behind an advisory flag
func ExplainAdvisory(a stats.Advisory) string {
	switch a {
	case stats.AdvisoryLowConfidence:
		return "Low confidence: the share of missing values is above the configured threshold, so the filled values lean heavily on the model."
	case stats.AdvisoryLowPower:
		return "Low power: some categories are too rare (expected count below 1), so the test may be unreliable."
	}
	return string(a)
}
