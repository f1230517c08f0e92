// Package output renders analysis reports for the terminal and as JSON.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/sensorgate/internal/types"
)

// Formatter is the interface for outputting analysis reports.
type Formatter interface {
	Format(w io.Writer, report *types.Report) error
}

// New returns the formatter registered under name ("terminal" or "json").
func New(name string, noColor, verbose bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "terminal":
		return &TerminalFormatter{NoColor: noColor, Verbose: verbose}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal or json)", name)
	}
}
