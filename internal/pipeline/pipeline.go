package pipeline

import (
	"fmt"
	"time"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
	"cyberguard/internal"
	"cyberguard/internal/analysis"
	filters "cyberguard/internal/filter"
	"cyberguard/internal/imputation"
)

// Pipeline recomputes a page from a filter state: global stage, page
// stage, then the page's artifacts. Results are memoized by table
// fingerprint and step parameters. A Pipeline is not safe for
// concurrent use.
type Pipeline struct {
	tables   map[dataset.Kind]*dataset.Table
	defs     *filters.Definitions
	analysis *analysis.Engine
	imputer  *imputation.Engine
	logger   *internal.Logger
	cache    map[core.Hash]cached
	now      func() time.Time
}

type cached struct {
	payload interface{}
	err     error
}

// Result is everything a page shows for one filter state
type Result struct {
	Page        filter.PageID  `json:"page"`
	Title       string         `json:"title"`
	Dataset     dataset.Kind   `json:"dataset"`
	Version     uint64         `json:"version"`
	YearRange   *filter.Range  `json:"year_range,omitempty"`
	Filtered    *dataset.Table `json:"-"`
	Summary     filter.Summary `json:"summary"`
	Chips       []filters.Chip `json:"chips"`
	Artifacts   []Artifact     `json:"artifacts"`
	Failures    []Failure      `json:"failures,omitempty"`
	Fingerprint core.Hash      `json:"fingerprint"`
	ComputedAt  time.Time      `json:"computed_at"`
}

// Artifact returns the computed artifact of the given kind
func (r *Result) Artifact(kind ArtifactKind) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			return a, true
		}
	}
	return Artifact{}, false
}

// Failure returns the recorded failure of the given kind
func (r *Result) Failure(kind ArtifactKind) (Failure, bool) {
	for _, f := range r.Failures {
		if f.Kind == kind {
			return f, true
		}
	}
	return Failure{}, false
}

// New creates a pipeline over the unfiltered tables
func New(tables map[dataset.Kind]*dataset.Table, defs *filters.Definitions, imputer *imputation.Engine, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{
		tables:   tables,
		defs:     defs,
		analysis: analysis.NewEngine(),
		imputer:  imputer,
		logger:   logger.Named("pipeline"),
		cache:    make(map[core.Hash]cached),
		now:      time.Now,
	}
}

// Table returns the unfiltered table of a dataset
func (p *Pipeline) Table(kind dataset.Kind) (*dataset.Table, error) {
	t, ok := p.tables[kind]
	if !ok || t == nil {
		return nil, core.NewDatasetMissingError(string(kind), "")
	}
	return t, nil
}

// Bounds returns the observed year span used to clamp the global stage
func (p *Pipeline) Bounds() (filter.Range, bool) {
	t, err := p.Table(dataset.GlobalThreats)
	if err != nil {
		return filter.Range{}, false
	}
	return filters.Bounds(t)
}

// Compute filters the page's dataset and derives its artifacts. Only an
// unknown page or a missing dataset fail the call; artifact errors are
// collected in Result.Failures and never hide the filtered table.
func (p *Pipeline) Compute(state filter.State, page filter.PageID) (*Result, error) {
	def, err := p.defs.Page(page)
	if err != nil {
		return nil, err
	}
	original, err := p.Table(def.Dataset)
	if err != nil {
		return nil, err
	}

	filtered := filters.Apply(original, state.Global, state.Page(page))
	result := &Result{
		Page:        page,
		Title:       def.Title,
		Dataset:     def.Dataset,
		Version:     state.Version,
		Filtered:    filtered,
		Summary:     filters.Summarize(original, filtered),
		Fingerprint: filtered.Fingerprint(),
		ComputedAt:  p.now(),
	}
	bounds, _ := p.Bounds()
	result.Chips = filters.ActiveFilters(state, page, bounds, original)
	if own, ok := filters.Bounds(original); ok {
		r := filters.EffectiveRange(state.Global, own)
		result.YearRange = &r
	}

	p.logger.Debug("page %s v%d: %d of %d rows (%s)", page, state.Version,
		result.Summary.Filtered, result.Summary.Original, result.Summary.Intensity)

	fingerprints := map[bool]core.Hash{false: result.Fingerprint}
	for _, step := range Plans[page] {
		input := filtered
		if step.Unfiltered {
			input = original
		}
		fp, ok := fingerprints[step.Unfiltered]
		if !ok {
			fp = input.Fingerprint()
			fingerprints[step.Unfiltered] = fp
		}

		payload, hit, err := p.run(step, input, fp)
		if err != nil {
			p.logger.Warn("page %s: %s failed: %v", page, step.Kind, err)
			result.Failures = append(result.Failures, Failure{Kind: step.Kind, Title: step.Title, Err: err})
			continue
		}
		result.Artifacts = append(result.Artifacts, Artifact{
			ID:        core.NewID(),
			Kind:      step.Kind,
			Title:     step.Title,
			Payload:   payload,
			Cached:    hit,
			CreatedAt: p.now(),
		})
	}
	return result, nil
}

// run executes a step through the memo cache
func (p *Pipeline) run(step Step, t *dataset.Table, fingerprint core.Hash) (interface{}, bool, error) {
	params := step.params()
	params["table"] = fingerprint
	key := core.ComputeParamsHash(string(step.Kind), params)
	if c, ok := p.cache[key]; ok {
		return c.payload, true, c.err
	}
	payload, err := p.execute(step, t)
	p.cache[key] = cached{payload: payload, err: err}
	return payload, false, err
}

func (p *Pipeline) execute(step Step, t *dataset.Table) (interface{}, error) {
	switch step.Kind {
	case ArtifactQuality:
		return p.analysis.Quality(t), nil
	case ArtifactDescription:
		return p.analysis.Describe(t, step.Target)
	case ArtifactCorrelation:
		return p.analysis.Correlation(t, step.Columns)
	case ArtifactTargetCorrelations:
		return p.analysis.TargetCorrelations(t, step.Columns, step.Target)
	case ArtifactPCA:
		return p.analysis.PCA(t, step.Columns, step.Components)
	case ArtifactGroupComparison:
		return p.analysis.CompareGroups(t, step.Columns[0], step.Target)
	case ArtifactAssociation:
		return p.analysis.Association(t, step.Columns[0], step.Target)
	case ArtifactClassBalance:
		return p.analysis.ClassBalance(t, step.Target)
	case ArtifactMissingPattern:
		return p.analysis.MissingPattern(t, step.Target)
	case ArtifactImputation:
		return p.imputer.Impute(t, step.Target, step.Columns)
	case ArtifactTrend:
		return p.analysis.Trend(t)
	case ArtifactGroupRates:
		return p.analysis.GroupRates(t, step.Columns[0], step.Target)
	case ArtifactGroupAggregates:
		return p.analysis.GroupAggregates(t, step.Columns[0], step.Target)
	}
	return nil, fmt.Errorf("unknown artifact kind %q", step.Kind)
}
