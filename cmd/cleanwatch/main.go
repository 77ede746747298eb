package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/watchmakers/cleanwatch/pkg/budget"
	"github.com/watchmakers/cleanwatch/pkg/config"
	"github.com/watchmakers/cleanwatch/pkg/isotope"
	"github.com/watchmakers/cleanwatch/pkg/types"
)

type app struct {
	// persistent flags
	cfgPath  string
	preset   string
	logLevel string
	noColor  bool

	cfg *config.Config
	det *config.Detector
}

type budgetOpts struct {
	signal float64
	days   float64
	method string

	// outputs
	csvPath  string
	jsonPath string
	htmlPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cleanwatch",
		Short: "Background budget apportionment for a water-based antineutrino detector",
		Long: `cleanwatch turns radioactive contamination assays of detector components into
singles and accidental coincidence rates, compares the resulting background
with the largest background that still reaches the target significance, and
re-apportions the allowed background across components and isotopes.

Configuration is read from defaults, an optional YAML file (--config or
CLEANWATCH_CONFIG) and CLEANWATCH_* environment variables.

Examples:
  cleanwatch print --preset 16m
  cleanwatch maxbg --signal 0.485 --days 156
  cleanwatch budget --method c --csv out/budget.csv --html out/budget.html`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.preset, "preset", "", fmt.Sprintf("built-in detector layout %v", config.PresetNames()))
	pf.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.printCmd(),
		a.maxbgCmd(),
		a.t3sigmaCmd(),
		a.bgrCmd(),
		a.ratioCmd(),
		a.budgetCmd(),
		a.breakdownCmd(),
		a.sharesCmd(),
		a.isotopesCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", a.logLevel, err)
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
			NoColor:    a.noColor,
		}),
	))

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.preset != "" {
		cfg.Preset = a.preset
		cfg.Components = nil
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	// isotopes and config do not need efficiencies
	if cmd.Name() == "isotopes" || cmd.Name() == "config" {
		return nil
	}
	det, err := cfg.Build(nil)
	if err != nil {
		return err
	}
	a.det = det
	return nil
}

func (a *app) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print activities, efficiencies and singles of every component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, c := range a.det.Components {
				fmt.Fprint(w, c.Output())
			}
			return nil
		},
	}
}

func (a *app) maxbgCmd() *cobra.Command {
	var signal, days float64
	cmd := &cobra.Command{
		Use:   "maxbg",
		Short: "Largest background per day that still reaches the target significance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signal, days = a.defaults(signal, days)
			mb, err := a.det.Engine.MaxBackground(signal, days)
			if errors.Is(err, budget.ErrInfeasible) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not possible.")
				slog.Warn(err.Error())
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6g\n", mb)
			return nil
		},
	}
	signalFlags(cmd, &signal, &days)
	return cmd
}

func (a *app) t3sigmaCmd() *cobra.Command {
	var signal, bg float64
	cmd := &cobra.Command{
		Use:   "t3sigma",
		Short: "Days of reactor-off running needed to reach the target significance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signal, _ = a.defaults(signal, 0)
			if !cmd.Flags().Changed("bg") {
				bg = a.det.Engine.TotalBackground(a.det.Components, signal)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6g\n", a.det.Engine.T3Sigma(signal, bg))
			return nil
		},
	}
	cmd.Flags().Float64Var(&signal, "signal", 0, "signal rate per day (default from config)")
	cmd.Flags().Float64Var(&bg, "bg", 0, "background per day (default: current detector background)")
	return cmd
}

func (a *app) bgrCmd() *cobra.Command {
	var signal float64
	cmd := &cobra.Command{
		Use:   "bgr",
		Short: "Current total background rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signal, _ = a.defaults(signal, 0)
			bg := a.det.Engine.TotalBackground(a.det.Components, signal)
			fmt.Fprintf(cmd.OutOrStdout(), "%.6g per day (%s)\n", bg, types.FromPerDay(bg).Humanized())
			return nil
		},
	}
	cmd.Flags().Float64Var(&signal, "signal", 0, "signal rate per day (default from config)")
	return cmd
}

func (a *app) ratioCmd() *cobra.Command {
	var signal, days float64
	cmd := &cobra.Command{
		Use:   "ratio",
		Short: "Current background over the maximum allowed background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signal, days = a.defaults(signal, days)
			r, err := a.det.Engine.BgRatio(a.det.Components, signal, days)
			if errors.Is(err, budget.ErrInfeasible) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not possible.")
				slog.Warn(err.Error())
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6g\n", r)
			return nil
		},
	}
	signalFlags(cmd, &signal, &days)
	return cmd
}

func (a *app) budgetCmd() *cobra.Command {
	var o budgetOpts
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Re-apportion the allowed background across components and isotopes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBudget(cmd.OutOrStdout(), o)
		},
	}
	signalFlags(cmd, &o.signal, &o.days)
	cmd.Flags().StringVarP(&o.method, "method", "m", "e", "apportionment method: e (even) or c (contribution)")
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "write the revised rates to a CSV file")
	cmd.Flags().StringVar(&o.jsonPath, "json", "", "write the revised rates to a JSON file")
	cmd.Flags().StringVar(&o.htmlPath, "html", "", "write the revised rates and summary to an HTML file")
	return cmd
}

func (a *app) runBudget(w io.Writer, o budgetOpts) error {
	method, err := budget.ParseMethod(o.method)
	if err != nil {
		return err
	}
	signal, days := a.defaults(o.signal, o.days)
	eng, comps := a.det.Engine, a.det.Components

	revised, err := eng.Budget(comps, signal, days, method, budget.Options{})
	if err != nil {
		return err
	}
	if len(revised) == 0 {
		fmt.Fprintln(w, "Not possible.")
		return nil
	}

	rep := newReport(eng, comps, revised, signal, days, method)

	fmt.Fprintln(w, a.heading("Revised component activities:"))
	for _, c := range revised {
		fmt.Fprintln(w, c.RevisedSummary())
	}
	fmt.Fprintln(w)
	printBudgetTable(w, rep)

	if o.csvPath != "" {
		if err := writeFile(o.csvPath, rep.writeCSV); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if o.jsonPath != "" {
		if err := writeFile(o.jsonPath, rep.writeJSON); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if o.htmlPath != "" {
		if err := writeFile(o.htmlPath, rep.writeHTML); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	return nil
}

func (a *app) breakdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown [COMPONENT]...",
		Short: "Per-isotope share of each component's accidental rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			comps := a.det.Components
			if len(args) > 0 {
				comps = nil
				for _, name := range args {
					c, ok := a.det.Component(name)
					if !ok {
						return fmt.Errorf("no component %q", name)
					}
					comps = append(comps, c)
				}
			}
			w := cmd.OutOrStdout()
			total := budget.TotalSinglesRate(a.det.Components)
			for _, c := range comps {
				fmt.Fprintln(w, a.heading(c.String()))
				fmt.Fprintf(w, "prompt singles %s, %.1f%% of detector\n",
					types.Rate(c.TotalPromptSingles()).Humanized(), c.SinglesShare(total)*100)
				printBreakdown(w, c.Breakdown())
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func (a *app) sharesCmd() *cobra.Command {
	var k float64
	cmd := &cobra.Command{
		Use:   "shares",
		Short: "Fractional accidental contribution of every isotope and its damped weight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			weights, err := a.det.Engine.FairShares(a.det.Components, k)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, a.heading("Accidental shares"))
			printShares(w, a.det.Components, weights)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&k, "scale", "k", 1, "total the damped weights are scaled to")
	return cmd
}

func (a *app) isotopesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "isotopes",
		Short: "List the isotope catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printIsotopes(cmd.OutOrStdout(), isotope.Default())
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Dump the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			specs, err := cfg.Layout()
			if err != nil {
				return err
			}
			cfg.Components = specs
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(&cfg)
		},
	}
}

func signalFlags(cmd *cobra.Command, signal, days *float64) {
	cmd.Flags().Float64Var(signal, "signal", 0, "signal rate per day (default from config)")
	cmd.Flags().Float64Var(days, "days", 0, "days to detection (default from config)")
}

// defaults fills unset (<= 0) signal and days from the configuration.
func (a *app) defaults(signal, days float64) (float64, float64) {
	if signal <= 0 {
		signal = a.cfg.Signal
	}
	if days <= 0 {
		days = a.cfg.T3Sigma
	}
	return signal, days
}

func (a *app) heading(s string) string {
	if a.noColor {
		return s
	}
	return headingStyle.Render(strings.TrimSpace(s))
}
