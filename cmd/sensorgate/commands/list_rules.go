package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/sensorgate"
)

var flagRepository string

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "List all available rules",
	RunE:  runListRules,
}

func init() {
	listRulesCmd.Flags().StringVar(&flagRepository, "repository", "", "Filter by rule repository")
	rootCmd.AddCommand(listRulesCmd)
}

func runListRules(cmd *cobra.Command, args []string) error {
	opts := []sensorgate.Option{sensorgate.WithRepository(flagRepository)}
	if flagRules != "" {
		opts = append(opts, sensorgate.WithCustomRules(flagRules))
	}
	if len(flagDisableRules) > 0 {
		opts = append(opts, sensorgate.WithDisabledRules(flagDisableRules...))
	}

	infos, err := sensorgate.ListRules(opts...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tSEVERITY\tREPOSITORY\tENGINE\n")
	fmt.Fprintf(tw, "--\t----\t--------\t----------\t------\n")
	for _, r := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Severity, r.Repository, r.Engine)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d rules loaded\n", len(infos))
	return nil
}
