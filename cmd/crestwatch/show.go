package main

import (
	"fmt"

	"github.com/fwojciec/crestwatch"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	set, ok, err := deps.Store.Load(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", crestwatch.ErrorMessage(err))
		return err
	}

	if !ok {
		fmt.Fprintln(deps.Stdout, "No snapshot found. Run 'crestwatch run' to record one.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "%d updates (fingerprint %s)\n", len(set), set.Fingerprint())
	if summary := crestwatch.FormatSummary(set); summary != "" {
		fmt.Fprintln(deps.Stdout, summary)
	}
	return nil
}
