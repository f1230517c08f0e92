package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/sensorgate/internal/types"
)

// JSONFormatter outputs the report as an indented JSON document.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, report *types.Report) error {
	r := *report
	if r.Findings == nil {
		r.Findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
