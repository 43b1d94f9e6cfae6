package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/thinklang/thinklang/pkg/testrunner"
)

// TestCmd runs the test blocks in a .test.tl file (spec §4.11),
// delegating entirely to pkg/testrunner.RunFile.
type TestCmd struct {
	File            string `arg:"" help:"Path to the .test.tl suite to run." type:"path"`
	Pattern         string `help:"Only run test blocks whose name matches this regexp."`
	Replay          bool   `help:"Force every test block into replay mode from its snapshot, ignoring declared mode."`
	UpdateSnapshots bool   `name:"update-snapshots" help:"Force every test block into record mode, overwriting snapshot files."`
}

func (c *TestCmd) Run(cli *CLI) error {
	src, err := readSource(c.File)
	if err != nil {
		return err
	}

	opts := testrunner.Options{ForceReplay: c.Replay, UpdateSnapshots: c.UpdateSnapshots}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return fmt.Errorf("invalid --pattern: %w", err)
		}
		opts.Pattern = re
	}

	handle, err := defaultHandle(cli)
	if err != nil {
		return err
	}

	report, err := testrunner.RunFile(context.Background(), c.File, src, handle, opts)
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		mark := "PASS"
		if r.Status != testrunner.StatusPassed {
			mark = "FAIL"
		}
		fmt.Printf("[%s] %s (%dms, $%.4f)\n", mark, r.Name, r.DurationMs, r.CostUsd)
		if r.Error != "" {
			fmt.Printf("       %s\n", r.Error)
		}
	}
	fmt.Printf("\n%d passed, %d failed\n", report.Passed, report.Failed)

	if report.Failed > 0 {
		return fmt.Errorf("%d test(s) failed", report.Failed)
	}
	return nil
}
