package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"cyberguard/app"
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
	"cyberguard/internal/config"
	"cyberguard/internal/imputation"
	"cyberguard/internal/report"
)

// run opens the service, computes the selected page and hands its
// filtered table to fn.
func run(cmd *cobra.Command, opts *options, fn func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error) error {
	s, cfg, err := openService(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Compute(filter.PageID(opts.page))
	if err != nil {
		return err
	}
	return fn(cmd.OutOrStdout(), s, cfg, res.Filtered)
}

func narrate(out io.Writer, cfg *config.Config, title string, payload interface{}) {
	r := report.NewRenderer(cfg.Analysis.Alpha)
	fmt.Fprintf(out, "\n📊 %s\n%s\n", title, r.Describe(payload))
	for _, adv := range report.Advisories(payload) {
		fmt.Fprintf(out, "⚠️  %s\n", report.ExplainAdvisory(adv))
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show how many rows every page keeps under the current filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openService(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			results, failed := s.ComputeAll()
			for _, res := range results {
				sm := res.Summary
				fmt.Fprintf(out, "%-24s %6d / %-6d rows  %5.1f%% removed  %s\n",
					res.Page, sm.Filtered, sm.Original, sm.RemovedPercent, sm.Intensity)
				for _, f := range res.Failures {
					fmt.Fprintf(out, "  ❌ %s: %s\n", f.Title, report.Explain(f.Err))
				}
			}
			for page, err := range failed {
				fmt.Fprintf(out, "%-24s unavailable: %s\n", page, report.Explain(err))
			}
			return nil
		},
	}
}

func newFilterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "filter",
		Short: "Show the active filters and the choices available on a page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openService(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			page := filter.PageID(opts.page)
			res, err := s.Compute(page)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (state v%d)\n", res.Title, res.Version)
			fmt.Fprintf(out, "Rows: %d of %d (%s)\n", res.Summary.Filtered, res.Summary.Original, res.Summary.Intensity)
			if res.YearRange != nil {
				fmt.Fprintf(out, "Years: %s\n", res.YearRange)
			}
			if len(res.Chips) == 0 {
				fmt.Fprintln(out, "Active filters: none")
			}
			for _, c := range res.Chips {
				fmt.Fprintf(out, "  • [%s] %s: %s\n", c.Scope, c.Key, c.Label)
			}

			choices, err := s.Options(page)
			if err != nil {
				return err
			}
			for _, o := range choices {
				switch {
				case o.Range != nil:
					fmt.Fprintf(out, "%s (%s): %s\n", o.Label, o.Key, o.Range)
				default:
					fmt.Fprintf(out, "%s (%s): %s\n", o.Label, o.Key, strings.Join(o.Values, ", "))
				}
			}
			return nil
		},
	}
}

func newCorrelateCmd(opts *options) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "correlate [columns...]",
		Short: "Pairwise Pearson correlations over the filtered page data",
		Long: `Compute pairwise Pearson correlations. With no columns every numeric
column is used. With --target, features are ranked by their correlation
with the target instead.

Example: cyberguard correlate --page intrusion_detection --target attack_detected`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				if target != "" {
					ranked, err := s.Analysis().TargetCorrelations(t, args, target)
					if err != nil {
						return err
					}
					for _, f := range ranked {
						if !f.Defined {
							fmt.Fprintf(out, "%-40s   n/a\n", f.Feature)
							continue
						}
						fmt.Fprintf(out, "%-40s %6.3f\n", f.Feature, f.Coefficient)
					}
					narrate(out, cfg, "Target correlations", ranked)
					return nil
				}

				m, err := s.Analysis().Correlation(t, args)
				if err != nil {
					return err
				}
				for i, row := range m.Values {
					fmt.Fprintf(out, "%-40s", m.Columns[i])
					for _, v := range row {
						if math.IsNaN(v) {
							fmt.Fprint(out, "    n/a")
							continue
						}
						fmt.Fprintf(out, " %6.3f", v)
					}
					fmt.Fprintln(out)
				}
				narrate(out, cfg, "Correlation", m)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Rank columns by correlation with this column")
	return cmd
}

func newPCACmd(opts *options) *cobra.Command {
	var components int
	cmd := &cobra.Command{
		Use:   "pca [columns...]",
		Short: "Principal component analysis of standardized numeric columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				p, err := s.Analysis().PCA(t, args, components)
				if err != nil {
					return err
				}
				for i, c := range p.Components {
					fmt.Fprintf(out, "PC%d  eigenvalue %.3f  explained %.1f%%  cumulative %.1f%%\n",
						i+1, c.Eigenvalue, c.ExplainedVariance*100, p.Cumulative[i]*100)
					for _, col := range p.Columns {
						fmt.Fprintf(out, "    %-40s %7.3f\n", col, c.Loadings[col])
					}
				}
				if n := p.ComponentsFor(0.95); n > 0 {
					fmt.Fprintf(out, "Components for 95%% of variance: %d\n", n)
				}
				narrate(out, cfg, "Principal components", p)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&components, "components", "n", 0, "Number of components (0 = all)")
	return cmd
}

func newCompareCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <group-column> <value-column>",
		Short: "Welch's t-test of a numeric column between two groups",
		Long: `Compare the mean of a numeric column between the two levels of a group column.

Example: cyberguard compare attack_detected failed_logins --page intrusion_detection`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				g, err := s.Analysis().CompareGroups(t, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s=%s: n=%d mean=%.3f\n", g.GroupColumn, g.GroupA, g.NA, g.MeanA)
				fmt.Fprintf(out, "%s=%s: n=%d mean=%.3f\n", g.GroupColumn, g.GroupB, g.NB, g.MeanB)
				fmt.Fprintf(out, "t=%.3f df=%.1f p=%.4g d=%.3f\n", g.TStatistic, g.DF, g.PValue, g.EffectSize)
				narrate(out, cfg, "Group comparison", g)
				return nil
			})
		},
	}
}

func newAssociateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "associate <categorical-column> <binary-column>",
		Short: "Chi-square test of a category against a binary outcome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				a, err := s.Analysis().Association(t, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-20s", "")
				for _, c := range a.Cols {
					fmt.Fprintf(out, " %8s", c)
				}
				fmt.Fprintln(out)
				for i, row := range a.Observed {
					fmt.Fprintf(out, "%-20s", a.Rows[i])
					for _, v := range row {
						fmt.Fprintf(out, " %8d", v)
					}
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "χ²=%.3f df=%d p=%.4g V=%.3f\n", a.Statistic, a.DF, a.PValue, a.CramersV)
				narrate(out, cfg, "Association", a)
				return nil
			})
		},
	}
}

func newTrendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Incident counts per year with growth and a linear fit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				tr, err := s.Analysis().Trend(t)
				if err != nil {
					return err
				}
				for _, p := range tr.Points {
					if math.IsNaN(p.Growth) {
						fmt.Fprintf(out, "%-8g %6d\n", p.Period, p.Count)
						continue
					}
					fmt.Fprintf(out, "%-8g %6d %+7.1f%%\n", p.Period, p.Count, p.Growth)
				}
				fmt.Fprintf(out, "slope=%.2f/period R²=%.4f total=%+.1f%%\n", tr.Slope, tr.RSquared, tr.TotalGrowth)
				narrate(out, cfg, "Trend", tr)
				return nil
			})
		},
	}
}

func newBreakdownCmd(opts *options) *cobra.Command {
	var binary bool
	cmd := &cobra.Command{
		Use:   "breakdown <group-column> <value-column>",
		Short: "Per-category totals of a numeric column, or rates of a binary one",
		Example: `  cyberguard breakdown Country "Financial Loss (in Million $)"
  cyberguard breakdown protocol_type attack_detected --binary --page intrusion_detection`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				if binary {
					r, err := s.Analysis().GroupRates(t, args[0], args[1])
					if err != nil {
						return err
					}
					for _, g := range r.Groups {
						fmt.Fprintf(out, "%-24s %6d / %-6d %6.1f%%\n", g.Level, g.Positives, g.Total, g.Rate*100)
					}
					narrate(out, cfg, "Rates", r)
					return nil
				}
				a, err := s.Analysis().GroupAggregates(t, args[0], args[1])
				if err != nil {
					return err
				}
				for _, g := range a.Groups {
					fmt.Fprintf(out, "%-24s n=%-6d total=%-14.2f mean=%.2f\n", g.Level, g.Count, g.Sum, g.Mean)
				}
				narrate(out, cfg, "Breakdown", a)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&binary, "binary", false, "Treat the value column as a 0/1 outcome and report rates")
	return cmd
}

func newImputeCmd(opts *options) *cobra.Command {
	var (
		holdout       float64
		maxIterations int
		show          int
	)
	cmd := &cobra.Command{
		Use:   "impute <target-column> <predictor-columns...>",
		Short: "Fill missing values of a numeric column by chained regression",
		Long: `Fill the missing values of a numeric column from predictor columns and
report held-out accuracy. Imputation always runs on the unfiltered dataset
of the selected page.

Example: cyberguard impute "Financial Loss (in Million $)" "Number of Affected Users" --seed 7`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openService(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			def, err := s.Definitions().Page(filter.PageID(opts.page))
			if err != nil {
				return err
			}
			t, err := s.Table(def.Dataset)
			if err != nil {
				return err
			}

			icfg := s.Imputer().Config()
			if cmd.Flags().Changed("holdout") {
				icfg.HoldoutFraction = holdout
			}
			if cmd.Flags().Changed("max-iterations") {
				icfg.MaxIterations = maxIterations
			}
			engine := imputation.NewEngine(icfg, nil)

			r, err := engine.Impute(t, args[0], args[1:])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %d missing of %d, %d iteration(s), converged=%t\n",
				r.RunID, r.MissingCount, len(r.Imputed), r.Iterations, r.Converged)
			shown := 0
			for i, missing := range r.Missing {
				if !missing || shown >= show {
					continue
				}
				fmt.Fprintf(out, "  row %-6d %.3f\n", i, r.Imputed[i])
				shown++
			}
			narrate(out, cfg, "Imputation", r)
			return nil
		},
	}
	cmd.Flags().Float64Var(&holdout, "holdout", 0.2, "Fraction of observed values held out for evaluation")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 10, "Iteration cap")
	cmd.Flags().IntVar(&show, "show", 10, "Number of filled rows to print")
	return cmd
}

func newQualityCmd(opts *options) *cobra.Command {
	var (
		column string
		binary string
	)
	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Completeness, missingness pattern and class balance of the filtered data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(out io.Writer, s *app.DashboardService, cfg *config.Config, t *dataset.Table) error {
				engine := s.Analysis()
				q := engine.Quality(t)
				for _, c := range q.PerColumn {
					fmt.Fprintf(out, "%-40s missing %5d (%5.1f%%)  distinct %d\n", c.Column, c.Missing, c.MissingRatio*100, c.Distinct)
				}
				narrate(out, cfg, "Data quality", q)

				if column != "" {
					if d, err := engine.Describe(t, column); err == nil {
						narrate(out, cfg, "Distribution", d)
					}
					p, err := engine.MissingPattern(t, column)
					if err != nil {
						fmt.Fprintf(out, "\n❌ Missingness pattern: %s\n", report.Explain(err))
					} else {
						narrate(out, cfg, "Missingness pattern", p)
					}
				}
				if binary != "" {
					b, err := engine.ClassBalance(t, binary)
					if err != nil {
						return err
					}
					narrate(out, cfg, "Class balance", b)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Describe this column and its missingness pattern")
	cmd.Flags().StringVar(&binary, "binary", "", "Report the class balance of this binary column")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the narrative report for a page, or every page with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openService(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			format, err := formatFor(cfg)
			if err != nil {
				return err
			}
			if all {
				return s.WriteReport(cmd.OutOrStdout(), format)
			}
			return s.WriteReport(cmd.OutOrStdout(), format, filter.PageID(opts.page))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Report every page")
	return cmd
}
