package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cyberguard/app"
	"cyberguard/domain/filter"
	"cyberguard/internal"
	"cyberguard/internal/config"
	"cyberguard/internal/errors"
	"cyberguard/internal/report"
)

// options are the flags shared by every command
type options struct {
	years       string
	preset      string
	attackType  string
	page        string
	pageFilters string
	seed        int64
	format      string
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "cyberguard",
		Short: "CyberGuard analytics: filter, analyse and report on the threat datasets",
		Long: `Filter, analyse and report on the global threat and intrusion detection datasets.

Datasets are read from DATA_DIR (CSV or XLSX), or from a database when
DATASET_DRIVER (postgres|sqlite3) and DATASET_DSN are set.

Example: cyberguard report --preset last_3y --format html > report.html`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.years, "years", "", "Global year range, e.g. 2020-2024")
	flags.StringVar(&opts.preset, "preset", "", "Year preset: last_3y|last_5y|all")
	flags.StringVar(&opts.attackType, "attack-type", "", "Restrict every page to one attack type")
	flags.StringVar(&opts.page, "page", string(filter.PageGlobalThreats), "Page: global_threats|intrusion_detection|data_analysis|comparative")
	flags.StringVar(&opts.pageFilters, "page-filters", "", `Page filters as JSON, e.g. '{"protocols":["TCP"],"attack_detected":"yes"}'`)
	flags.Int64Var(&opts.seed, "seed", 42, "Random seed for deterministic operations")
	flags.StringVar(&opts.format, "format", "", "Report format: md|html (default from REPORT_FORMAT)")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newFilterCmd(opts),
		newCorrelateCmd(opts),
		newPCACmd(opts),
		newCompareCmd(opts),
		newAssociateCmd(opts),
		newTrendCmd(opts),
		newBreakdownCmd(opts),
		newImputeCmd(opts),
		newQualityCmd(opts),
		newReportCmd(opts),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// openService loads configuration and the datasets, then applies the
// global and page flags to the session.
func openService(cmd *cobra.Command, opts *options) (*app.DashboardService, *config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	internal.SetDefaultLevel(internal.ParseLogLevel(cfg.LogLevel))
	if cmd.Flags().Changed("seed") {
		cfg.Imputation.Seed = opts.seed
	}
	if opts.format != "" {
		cfg.Report.Format = opts.format
	}

	s, err := app.Open(cmd.Context(), cfg, internal.DefaultLogger)
	if err != nil {
		return nil, nil, err
	}
	if err := applyFilters(s, opts); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return s, cfg, nil
}

func applyFilters(s *app.DashboardService, opts *options) error {
	if opts.years != "" {
		lo, hi, err := parseYears(opts.years)
		if err != nil {
			return err
		}
		s.SetYearRange(lo, hi)
	}
	if opts.preset != "" {
		if _, err := s.SetPreset(opts.preset); err != nil {
			return err
		}
	}
	if opts.attackType != "" {
		s.SetAttackType(opts.attackType)
	}
	if opts.pageFilters != "" {
		if _, err := s.SetPageFilters(filter.PageID(opts.page), opts.pageFilters); err != nil {
			return err
		}
	}
	return nil
}

// parseYears accepts "2020-2024", "2020:2024", "2020,2024" or a single year
func parseYears(s string) (float64, float64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ':' || r == ',' })
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return 0, 0, errors.InvalidInput(fmt.Sprintf("invalid year range %q", s))
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, errors.InvalidInput(fmt.Sprintf("invalid year %q", parts[0]))
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, errors.InvalidInput(fmt.Sprintf("invalid year %q", parts[1]))
	}
	return lo, hi, nil
}

func formatFor(cfg *config.Config) (report.Format, error) {
	return report.ParseFormat(cfg.Report.Format)
}
