// viz-relay fans producer telemetry out to Felicia dashboard browsers.
// Usage: viz-relay serve --config configs/relay.example.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
