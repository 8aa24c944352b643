package app

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"cyberguard/adapters/loader"
	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
	"cyberguard/internal"
	"cyberguard/internal/analysis"
	"cyberguard/internal/config"
	"cyberguard/internal/errors"
	filters "cyberguard/internal/filter"
	"cyberguard/internal/imputation"
	"cyberguard/internal/pipeline"
	"cyberguard/internal/report"
	"cyberguard/ports"
)

// DashboardService wires the datasets, the filter session and the page
// pipeline together for a host. It serves a single interactive session.
type DashboardService struct {
	config   *config.Config
	loader   ports.DatasetLoader
	closer   func() error
	logger   *internal.Logger
	tables   map[dataset.Kind]*dataset.Table
	missing  map[dataset.Kind]error
	defs     *filters.Definitions
	analysis *analysis.Engine
	imputer  *imputation.Engine
	pipeline *pipeline.Pipeline
	session  *filters.Session
	renderer *report.Renderer
}

// OpenLoader selects the SQL loader when a driver is configured and the
// file loader otherwise. The returned closer releases the database.
func OpenLoader(ctx context.Context, cfg config.DataConfig, logger *internal.Logger) (ports.DatasetLoader, func() error, error) {
	if cfg.UsesSQL() {
		l, err := loader.OpenSQLLoader(ctx, cfg.Driver, cfg.DSN, logger)
		if err != nil {
			return nil, nil, errors.SourceError(cfg.Driver, err)
		}
		return l, l.Close, nil
	}
	return loader.NewFileLoader(cfg, logger), func() error { return nil }, nil
}

// Open builds a service from configuration
func Open(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*DashboardService, error) {
	l, closer, err := OpenLoader(ctx, cfg.Data, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewDashboardService(ctx, cfg, l, logger)
	if err != nil {
		_ = closer()
		return nil, err
	}
	s.closer = closer
	return s, nil
}

// NewDashboardService loads both datasets concurrently. A dataset whose
// source is absent only disables the pages built on it; any other load
// error fails startup.
func NewDashboardService(ctx context.Context, cfg *config.Config, l ports.DatasetLoader, logger *internal.Logger) (*DashboardService, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	defs, err := filters.BuiltinDefinitions()
	if err != nil {
		return nil, errors.Wrap(err, "load page definitions")
	}

	s := &DashboardService{
		config:   cfg,
		loader:   l,
		closer:   func() error { return nil },
		logger:   logger.Named("dashboard"),
		tables:   make(map[dataset.Kind]*dataset.Table),
		missing:  make(map[dataset.Kind]error),
		defs:     defs,
		analysis: analysis.NewEngine(),
		imputer:  imputation.NewEngine(imputation.ConfigFrom(cfg.Imputation), logger),
		renderer: report.NewRenderer(cfg.Analysis.Alpha),
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	s.pipeline = pipeline.New(s.tables, defs, s.imputer, logger)
	bounds, ok := s.pipeline.Bounds()
	if !ok {
		s.logger.Warn("no observed years; the global year range is inactive")
	}
	s.session = filters.NewSession(bounds)
	s.logger.Info("session %s started, years %s", s.session.ID(), bounds)
	return s, nil
}

func (s *DashboardService) load(ctx context.Context) error {
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range dataset.Kinds() {
		g.Go(func() error {
			t, err := s.loader.Load(ctx, kind)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case core.IsDatasetMissing(err):
				s.logger.Warn("dataset %s unavailable: %v", kind, err)
				s.missing[kind] = err
				return nil
			case err != nil:
				return errors.Wrapf(err, "load %s", kind)
			}
			s.logger.Info("loaded %s: %d rows, %d columns", kind, t.Rows(), len(t.Columns()))
			s.tables[kind] = t
			return nil
		})
	}
	return g.Wait()
}

// Close releases the dataset source
func (s *DashboardService) Close() error {
	return s.closer()
}

// Table returns an unfiltered dataset
func (s *DashboardService) Table(kind dataset.Kind) (*dataset.Table, error) {
	if err, ok := s.missing[kind]; ok {
		return nil, err
	}
	return s.pipeline.Table(kind)
}

// Missing lists datasets whose source was absent at startup
func (s *DashboardService) Missing() map[dataset.Kind]error {
	out := make(map[dataset.Kind]error, len(s.missing))
	for k, v := range s.missing {
		out[k] = v
	}
	return out
}

// Analysis returns the statistics engine for ad-hoc queries
func (s *DashboardService) Analysis() *analysis.Engine { return s.analysis }

// Imputer returns the imputation engine
func (s *DashboardService) Imputer() *imputation.Engine { return s.imputer }

// Definitions returns the page catalogue
func (s *DashboardService) Definitions() *filters.Definitions { return s.defs }

// Session returns the filter session
func (s *DashboardService) Session() *filters.Session { return s.session }

// State returns the current filter state
func (s *DashboardService) State() filter.State { return s.session.State() }

// SetYearRange sets an explicit year range and clears any preset
func (s *DashboardService) SetYearRange(lo, hi float64) filter.State {
	return s.session.Update(func(st filter.State) filter.State {
		st.Global.YearRange = filter.Range{Lo: lo, Hi: hi}
		st.Global.Preset = filter.PresetNone
		return st
	})
}

// SetPreset selects a year preset by name
func (s *DashboardService) SetPreset(name string) (filter.State, error) {
	p, err := filter.ParsePreset(name)
	if err != nil {
		return s.State(), errors.WithCode(errors.CodeInvalidInput, err)
	}
	return s.session.Update(func(st filter.State) filter.State {
		st.Global.Preset = p
		return st
	}), nil
}

// SetAttackType narrows every page to one attack type; "" or "All" clears it
func (s *DashboardService) SetAttackType(attack string) filter.State {
	return s.session.Update(func(st filter.State) filter.State {
		st.Global.AttackType = attack
		return st
	})
}

// SetPageFilters replaces one page's filters from a JSON object keyed by
// filter key or column name.
func (s *DashboardService) SetPageFilters(page filter.PageID, raw string) (filter.State, error) {
	ps, err := s.defs.ParsePageState(page, raw)
	if err != nil {
		return s.State(), errors.WithCode(errors.CodeInvalidInput, err)
	}
	return s.session.Update(func(st filter.State) filter.State {
		return st.WithPage(page, ps)
	}), nil
}

// ResetPage restores a page's default filters
func (s *DashboardService) ResetPage(page filter.PageID) filter.State {
	return s.session.Update(func(st filter.State) filter.State {
		return st.WithPage(page, s.defs.DefaultState(page))
	})
}

// Clear resets both filter scopes
func (s *DashboardService) Clear() filter.State { return s.session.Clear() }

// GlobalTable applies only the global stage to a dataset
func (s *DashboardService) GlobalTable(kind dataset.Kind) (*dataset.Table, error) {
	t, err := s.Table(kind)
	if err != nil {
		return nil, err
	}
	return filters.ApplyGlobal(t, s.State().Global), nil
}

// Options lists the choices of every filter on a page, drawn from the
// values left after the global stage.
func (s *DashboardService) Options(page filter.PageID) ([]filters.Option, error) {
	def, err := s.defs.Page(page)
	if err != nil {
		return nil, err
	}
	t, err := s.GlobalTable(def.Dataset)
	if err != nil {
		return nil, err
	}
	return s.defs.Options(t, page)
}

// Compute recomputes one page for the current filter state
func (s *DashboardService) Compute(page filter.PageID) (*pipeline.Result, error) {
	def, err := s.defs.Page(page)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if err, ok := s.missing[def.Dataset]; ok {
		return nil, errors.WithCode(errors.CodeDatasetMissing, err)
	}
	return s.pipeline.Compute(s.State(), page)
}

// ComputeAll recomputes every page. Pages whose dataset is unavailable
// are reported in the error map and skipped.
func (s *DashboardService) ComputeAll() ([]*pipeline.Result, map[filter.PageID]error) {
	var (
		results []*pipeline.Result
		failed  = make(map[filter.PageID]error)
	)
	for _, p := range s.defs.Pages {
		res, err := s.Compute(p.ID)
		if err != nil {
			failed[p.ID] = err
			continue
		}
		results = append(results, res)
	}
	return results, failed
}

// WriteReport renders the given pages, or every page when none are named.
// Pages that cannot be computed are listed with an explanation; the call
// fails only when no page could be computed.
func (s *DashboardService) WriteReport(w io.Writer, format report.Format, pages ...filter.PageID) error {
	if len(pages) == 0 {
		for _, p := range s.defs.Pages {
			pages = append(pages, p.ID)
		}
	}

	var results []*pipeline.Result
	skipped := make(map[filter.PageID]error)
	var first error
	for _, p := range pages {
		res, err := s.Compute(p)
		if err != nil {
			s.logger.Warn("page %s skipped: %s", p, report.Explain(err))
			skipped[p] = err
			if first == nil {
				first = errors.Wrapf(err, "page %s", p)
			}
			continue
		}
		results = append(results, res)
	}
	if len(results) == 0 && first != nil {
		return first
	}
	return s.renderer.RenderPages(w, format, results, skipped)
}
