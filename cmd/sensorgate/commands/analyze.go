package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/garagon/sensorgate"
	"github.com/garagon/sensorgate/internal/config"
	"github.com/garagon/sensorgate/internal/output"
)

var (
	flagFailOn      string
	flagMetricsFile string
	flagChanged     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Run the applicable sensors over a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit with code 1 if findings at or above this severity (critical, high, medium, low, info)")
	analyzeCmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "Write sensor metrics in Prometheus text format to this file")
	analyzeCmd.Flags().BoolVar(&flagChanged, "changed", false, "Only analyze git-changed files (staged, unstaged, untracked)")
	rootCmd.AddCommand(analyzeCmd)
}

// ThresholdError reports that findings met the --fail-on severity.
type ThresholdError struct {
	Threshold sensorgate.Severity
	Count     int
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("%d findings at or above %s", e.Count, e.Threshold)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	target := targetArg(args)
	if err := loadProjectDefaults(cmd, target); err != nil {
		return err
	}

	opts, err := analysisOptions()
	if err != nil {
		return err
	}
	if flagMetricsFile != "" {
		opts = append(opts, sensorgate.WithMetricsFile(flagMetricsFile))
	}
	if flagChanged {
		opts = append(opts, sensorgate.WithChangedOnly())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	report, err := sensorgate.Analyze(ctx, target, opts...)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeOutput(cmd, report); err != nil {
		return err
	}
	return checkFailOnThreshold(report)
}

func targetArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// loadProjectDefaults fills unset flags from .sensorgate.yml.
func loadProjectDefaults(cmd *cobra.Command, target string) error {
	cfg, err := config.Load(target)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("severity") && cfg.Severity != "" {
		flagSeverity = cfg.Severity
	}
	if !cmd.Flags().Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	if f := cmd.Flags().Lookup("fail-on"); f != nil && !f.Changed && cfg.FailOn != "" {
		flagFailOn = cfg.FailOn
	}
	return nil
}

// analysisOptions converts the shared flags into library options.
func analysisOptions() ([]sensorgate.Option, error) {
	minSev, err := parseSeverityFlag()
	if err != nil {
		return nil, err
	}
	defines, err := config.ParseDefines(flagDefines)
	if err != nil {
		return nil, err
	}

	opts := []sensorgate.Option{
		sensorgate.WithMinSeverity(minSev),
		sensorgate.WithWorkers(flagWorkers),
		sensorgate.WithProperties(defines),
	}
	if flagRules != "" {
		opts = append(opts, sensorgate.WithCustomRules(flagRules))
	}
	if len(flagDisableRules) > 0 {
		opts = append(opts, sensorgate.WithDisabledRules(flagDisableRules...))
	}
	return opts, nil
}

func parseSeverityFlag() (sensorgate.Severity, error) {
	if flagSeverity == "" {
		return sensorgate.SeverityInfo, nil
	}
	sev, err := sensorgate.ParseSeverity(flagSeverity)
	if err != nil {
		return 0, fmt.Errorf("invalid --severity: %w", err)
	}
	return sev, nil
}

func writeOutput(cmd *cobra.Command, report *sensorgate.Report) error {
	if os.Getenv("NO_COLOR") != "" {
		flagNoColor = true
	}
	formatter, err := output.New(flagFormat, flagNoColor, flagVerbose)
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	return formatter.Format(w, report)
}

// openOutput returns the --output file, or the command's stdout when unset.
func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	if flagOutput == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func checkFailOnThreshold(report *sensorgate.Report) error {
	if flagFailOn == "" {
		return nil
	}
	threshold, err := sensorgate.ParseSeverity(flagFailOn)
	if err != nil {
		return fmt.Errorf("invalid --fail-on: %w", err)
	}
	count := 0
	for _, f := range report.Findings {
		if f.Severity >= threshold {
			count++
		}
	}
	if count > 0 {
		return &ThresholdError{Threshold: threshold, Count: count}
	}
	return nil
}
