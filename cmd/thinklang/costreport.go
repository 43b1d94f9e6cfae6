package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/thinklang/thinklang/pkg/runtime"
)

// CostReportCmd prints the current session's cost summary (spec §6:
// "print the current session summary"). When given a program file it
// runs it first and reports the cost that run incurred; invoked bare
// it reports this process's default handle, which has recorded no
// calls. The repl has no cost-report command of its own.
type CostReportCmd struct {
	File   string `arg:"" optional:"" help:"Optional .tl program to run before reporting its cost." type:"path"`
	Format string `help:"Output format: text, yaml." default:"text" enum:"text,yaml"`
}

func (c *CostReportCmd) Run(cli *CLI) error {
	var handle *runtime.Handle
	var err error
	if c.File != "" {
		handle, err = executeFile(cli, c.File)
		if handle == nil && err != nil {
			return err
		}
	} else {
		handle, err = defaultHandle(cli)
		if err != nil {
			return err
		}
	}

	summary := handle.Cost.GetSummary()
	if c.Format == "yaml" {
		out, marshalErr := yaml.Marshal(summary)
		if marshalErr != nil {
			return fmt.Errorf("marshaling cost summary: %w", marshalErr)
		}
		fmt.Fprint(os.Stdout, string(out))
		return err
	}

	printCostSummaryText(summary)
	return err
}

func printCostSummaryText(s runtime.Summary) {
	fmt.Printf("calls: %d   cost: $%.4f   tokens: %d in / %d out\n",
		s.TotalCalls, s.TotalCostUsd, s.TotalInputTokens, s.TotalOutputTokens)

	if len(s.ByOperation) > 0 {
		fmt.Println("\nby operation:")
		for _, name := range sortedKeys(s.ByOperation) {
			op := s.ByOperation[name]
			fmt.Printf("  %-8s %4d calls   $%.4f\n", name, op.Calls, op.CostUsd)
		}
	}
	if len(s.ByModel) > 0 {
		fmt.Println("\nby model:")
		for _, name := range sortedKeys(s.ByModel) {
			m := s.ByModel[name]
			fmt.Printf("  %-24s %4d calls   $%.4f\n", name, m.Calls, m.CostUsd)
		}
	}
}

func sortedKeys(m map[string]*runtime.OperationSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
