package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/garagon/sensorgate/cmd/sensorgate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sensorgate: %v\n", err)
		var threshold *commands.ThresholdError
		if errors.As(err, &threshold) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
