package stats

import (
	"math"
	"sort"
	"time"

	"cyberguard/domain/core"
)

// Advisory marks an otherwise valid result that must be shown with a caveat
type Advisory string

const (
	AdvisoryLowConfidence Advisory = "low_confidence"
	AdvisoryLowPower      Advisory = "low_power"
)

// CorrelationMatrix holds pairwise Pearson coefficients. Undefined pairs
// (fewer than two overlapping values, or a constant column) are NaN.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
	// Overlap counts rows where both columns were present
	Overlap [][]int `json:"overlap"`
}

// At returns the coefficient for (a, b); ok is false when the pair is
// unknown or undefined.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	v := m.Values[i][j]
	return v, !math.IsNaN(v)
}

func (m *CorrelationMatrix) index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Undefined lists the column pairs without a coefficient, in matrix order
func (m *CorrelationMatrix) Undefined() [][2]string {
	var out [][2]string
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if math.IsNaN(m.Values[i][j]) {
				out = append(out, [2]string{m.Columns[i], m.Columns[j]})
			}
		}
	}
	return out
}

// FeatureCorrelation is one feature's coefficient with a target
type FeatureCorrelation struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
	Defined     bool    `json:"defined"`
}

// Component is one principal component
type Component struct {
	ExplainedVariance float64            `json:"explained_variance"`
	Eigenvalue        float64            `json:"eigenvalue"`
	Loadings          map[string]float64 `json:"loadings"`
}

// PCAProjection is a reduced-dimension view of standardized columns
type PCAProjection struct {
	Columns    []string    `json:"columns"`
	Dropped    []string    `json:"dropped,omitempty"`
	Components []Component `json:"components"`
	Cumulative []float64   `json:"cumulative"`
	// Coordinates holds (PC1, PC2) for every row used; PC2 is 0 when only
	// one component was requested.
	Coordinates [][2]float64 `json:"coordinates"`
	// RowIndex maps coordinates back to rows of the input table
	RowIndex []int `json:"row_index"`
}

// ComponentsFor returns how many leading components reach the cumulative
// variance threshold, or 0 when the requested components never do.
func (p *PCAProjection) ComponentsFor(threshold float64) int {
	for i, c := range p.Cumulative {
		if c >= threshold-1e-12 {
			return i + 1
		}
	}
	return 0
}

// GroupComparison is a two-sample difference-of-means test
type GroupComparison struct {
	GroupColumn string  `json:"group_column"`
	ValueColumn string  `json:"value_column"`
	GroupA      string  `json:"group_a"`
	GroupB      string  `json:"group_b"`
	NA          int     `json:"n_a"`
	NB          int     `json:"n_b"`
	MeanA       float64 `json:"mean_a"`
	MeanB       float64 `json:"mean_b"`
	MeanDiff    float64 `json:"mean_diff"`
	TStatistic  float64 `json:"t_statistic"`
	DF          float64 `json:"df"`
	PValue      float64 `json:"p_value"`
	EffectSize  float64 `json:"effect_size"`
}

// Significant reports p < alpha
func (g *GroupComparison) Significant(alpha float64) bool { return g.PValue < alpha }

// Association is a contingency-table chi-square test
type Association struct {
	CategoricalColumn string      `json:"categorical_column"`
	BinaryColumn      string      `json:"binary_column"`
	Rows              []string    `json:"rows"`
	Cols              []string    `json:"cols"`
	Observed          [][]int     `json:"observed"`
	Expected          [][]float64 `json:"expected"`
	Statistic         float64     `json:"statistic"`
	DF                int         `json:"df"`
	PValue            float64     `json:"p_value"`
	CramersV          float64     `json:"cramers_v"`
	MinExpected       float64     `json:"min_expected"`
	LowPower          bool        `json:"low_power"`
}

// Significant reports p < alpha
func (a *Association) Significant(alpha float64) bool { return a.PValue < alpha }

// Advisories lists caveats attached to the result
func (a *Association) Advisories() []Advisory {
	if a.LowPower {
		return []Advisory{AdvisoryLowPower}
	}
	return nil
}

// ImputationMetrics compares predictions with held-out truth
type ImputationMetrics struct {
	MAE  float64 `json:"mean_absolute_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	MAPE float64 `json:"mean_absolute_percentage_error"`
	N    int     `json:"n"`
}

// QualityLabel grades the MAPE percentage
func (m ImputationMetrics) QualityLabel() string {
	switch {
	case m.MAPE < 10:
		return "excellent"
	case m.MAPE < 20:
		return "good"
	default:
		return "moderate"
	}
}

// ImputationEvaluation answers "how good would this be", independent of
// the production fill.
type ImputationEvaluation struct {
	Metrics         ImputationMetrics `json:"metrics"`
	Baseline        ImputationMetrics `json:"baseline"`
	HoldoutFraction float64           `json:"holdout_fraction"`
	Seed            int64             `json:"seed"`
	Iterations      int               `json:"iterations"`
	Converged       bool              `json:"converged"`
}

// BeatsBaseline reports whether the chained model improves on mean-fill
func (e *ImputationEvaluation) BeatsBaseline() bool {
	return e.Metrics.MAE < e.Baseline.MAE && e.Metrics.RMSE < e.Baseline.RMSE
}

// ImputationResult is the filled target column and how much to trust it
type ImputationResult struct {
	RunID           core.RunID            `json:"run_id"`
	Target          string                `json:"target"`
	Predictors      []string              `json:"predictors"`
	Original        []float64             `json:"original"`
	Missing         []bool                `json:"missing"`
	Imputed         []float64             `json:"imputed"`
	MissingCount    int                   `json:"missing_count"`
	MissingFraction float64               `json:"missing_fraction"`
	Iterations      int                   `json:"iterations"`
	Converged       bool                  `json:"converged"`
	MaxDelta        float64               `json:"max_delta"`
	LowConfidence   bool                  `json:"low_confidence"`
	Evaluation      *ImputationEvaluation `json:"evaluation,omitempty"`
	ComputedAt      time.Time             `json:"computed_at"`
}

// Advisories lists caveats attached to the result
func (r *ImputationResult) Advisories() []Advisory {
	if r.LowConfidence {
		return []Advisory{AdvisoryLowConfidence}
	}
	return nil
}

// ColumnQuality is the missingness profile of one column
type ColumnQuality struct {
	Column       string  `json:"column"`
	Missing      int     `json:"missing"`
	MissingRatio float64 `json:"missing_ratio"`
	Distinct     int     `json:"distinct"`
}

// QualityReport summarizes completeness of a table
type QualityReport struct {
	Dataset      string          `json:"dataset"`
	Rows         int             `json:"rows"`
	Columns      int             `json:"columns"`
	MissingCells int             `json:"missing_cells"`
	Completeness float64         `json:"completeness"`
	Label        string          `json:"label"`
	PerColumn    []ColumnQuality `json:"per_column"`
}

// WithMissing returns only columns that have gaps, most affected first
func (q *QualityReport) WithMissing() []ColumnQuality {
	var out []ColumnQuality
	for _, c := range q.PerColumn {
		if c.Missing > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Missing > out[j].Missing })
	return out
}

// MissingPattern describes how gaps are spread across row order
type MissingPattern struct {
	Column      string  `json:"column"`
	Missing     int     `json:"missing"`
	GapMean     float64 `json:"gap_mean"`
	GapStdDev   float64 `json:"gap_std_dev"`
	GapCV       float64 `json:"gap_cv"`
	ExpectedGap float64 `json:"expected_gap"`
	Random      bool    `json:"random"`
}

// ClassBalance describes the positive rate of a binary outcome
type ClassBalance struct {
	Column         string  `json:"column"`
	Positives      int     `json:"positives"`
	Negatives      int     `json:"negatives"`
	PositiveRate   float64 `json:"positive_rate"`
	ImbalanceRatio float64 `json:"imbalance_ratio"`
	Label          string  `json:"label"`
}

// Description holds summary statistics for one numeric column
type Description struct {
	Column   string  `json:"column"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
}

// TrendPoint is the incident count of one period
type TrendPoint struct {
	Period float64 `json:"period"`
	Count  int     `json:"count"`
	// Growth is the change against the previous period in percent; NaN
	// for the first period.
	Growth float64 `json:"growth"`
}

// TrendDirection classifies total growth over the observed periods
type TrendDirection string

const (
	TrendGrowing   TrendDirection = "growing"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Trend is the linear fit of per-period counts
type Trend struct {
	Column      string         `json:"column"`
	Points      []TrendPoint   `json:"points"`
	TotalGrowth float64        `json:"total_growth"`
	AvgGrowth   float64        `json:"avg_growth"`
	Slope       float64        `json:"slope"`
	Intercept   float64        `json:"intercept"`
	RSquared    float64        `json:"r_squared"`
	Direction   TrendDirection `json:"direction"`
}

// GroupRate is the positive rate of a binary outcome within one level
type GroupRate struct {
	Level     string  `json:"level"`
	Positives int     `json:"positives"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

// GroupRates breaks a binary outcome down by a categorical column,
// highest rate first
type GroupRates struct {
	CategoricalColumn string      `json:"categorical_column"`
	BinaryColumn      string      `json:"binary_column"`
	Groups            []GroupRate `json:"groups"`
}

// GroupAggregate summarizes a numeric column within one level
type GroupAggregate struct {
	Level string  `json:"level"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
}

// GroupAggregates summarizes a numeric column per level, largest sum first
type GroupAggregates struct {
	GroupColumn string           `json:"group_column"`
	ValueColumn string           `json:"value_column"`
	Groups      []GroupAggregate `json:"groups"`
}

// Top returns up to n leading groups
func (g *GroupAggregates) Top(n int) []GroupAggregate {
	if n < 0 || n > len(g.Groups) {
		n = len(g.Groups)
	}
	return g.Groups[:n]
}
