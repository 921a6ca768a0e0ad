package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/crestwatch"
	"github.com/fwojciec/crestwatch/watch"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	result, err := deps.Watcher.Run(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", crestwatch.ErrorMessage(err))
		return err
	}

	if result.PersistErr != nil {
		fmt.Fprintf(deps.Stderr, "warning: snapshot not saved: %s\n", crestwatch.ErrorMessage(result.PersistErr))
	}

	if c.DryRun {
		return printDryRun(deps, result.Diff, result.Deliveries)
	}

	for _, d := range result.Deliveries {
		if d.Err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", d.Channel, crestwatch.ErrorMessage(d.Err))
		}
	}

	if result.AllFailed() {
		return crestwatch.Errorf(crestwatch.EDELIVERY, "all %d channels failed", len(result.Deliveries))
	}
	return nil
}

func printDryRun(deps *Dependencies, diff crestwatch.DiffResult, deliveries []watch.DeliveryOutcome) error {
	switch {
	case diff.FirstRun:
		fmt.Fprintf(deps.Stdout, "No snapshot yet; %d updates would be recorded as the baseline.\n", diff.Current)
		return nil
	case !diff.Changed:
		fmt.Fprintln(deps.Stdout, "No changes.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Listing changed (%d -> %d updates).\n", diff.Previous, diff.Current)
	for _, d := range deliveries {
		if d.Err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", d.Channel, crestwatch.ErrorMessage(d.Err))
			continue
		}
		body, err := indent(d.Payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Stdout, "\n# %s\n%s\n", d.Channel, body)
	}
	return nil
}

// indent renders a payload as indented JSON without HTML escaping, matching
// what would be posted.
func indent(payload crestwatch.Payload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", crestwatch.Errorf(crestwatch.EINTERNAL, "encode payload: %v", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
