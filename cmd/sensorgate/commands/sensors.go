package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/sensorgate"
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors [path]",
	Short: "Show which sensors would run on a project, and why the others would not",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSensors,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
}

type sensorDecision struct {
	Name     string `json:"name"`
	Execute  bool   `json:"execute"`
	Reason   string `json:"reason,omitempty"`
	Property string `json:"property,omitempty"`
}

func runSensors(cmd *cobra.Command, args []string) error {
	target := targetArg(args)
	if err := loadProjectDefaults(cmd, target); err != nil {
		return err
	}
	opts, err := analysisOptions()
	if err != nil {
		return err
	}

	statuses, err := sensorgate.ExplainSensors(context.Background(), target, opts...)
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	if strings.ToLower(flagFormat) == "json" {
		decisions := make([]sensorDecision, len(statuses))
		for i, s := range statuses {
			decisions[i] = sensorDecision{Name: s.Name, Execute: s.Executed, Reason: s.SkipReason, Property: s.Detail}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(decisions)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SENSOR\tDECISION\tREASON\n")
	fmt.Fprintf(tw, "------\t--------\t------\n")
	executed := 0
	for _, s := range statuses {
		if s.Executed {
			executed++
			fmt.Fprintf(tw, "%s\texecute\t\n", s.Name)
			continue
		}
		reason := s.SkipReason
		if s.Detail != "" {
			reason += " (" + s.Detail + ")"
		}
		fmt.Fprintf(tw, "%s\tskip\t%s\n", s.Name, reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d of %d sensors would run\n", executed, len(statuses))
	return nil
}
