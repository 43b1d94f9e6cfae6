// Command thinklang is the ThinkLang CLI of spec §6: run, compile,
// repl, test, and cost-report subcommands over the parser/checker/
// codegen/runtime/testrunner packages.
//
// Usage:
//
//	thinklang run program.tl
//	thinklang compile program.tl
//	thinklang test suite.test.tl --pattern rating
//	thinklang cost-report --format yaml
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/thinklang/thinklang"
	"github.com/thinklang/thinklang/pkg/config"
	"github.com/thinklang/thinklang/pkg/llms"
	"github.com/thinklang/thinklang/pkg/logger"
	"github.com/thinklang/thinklang/pkg/runtime"
)

// CLI is the top-level command tree (spec §6's five subcommands, named
// exactly as the spec lists them).
type CLI struct {
	Run        RunCmd        `cmd:"" help:"Parse, check, compile, and execute a .tl program."`
	Compile    CompileCmd    `cmd:"" help:"Parse and check a .tl program, reporting diagnostics and compiled schemas."`
	Repl       ReplCmd       `cmd:"" help:"Start an interactive read-eval-print loop."`
	Test       TestCmd       `cmd:"" help:"Run the test blocks in a .test.tl file."`
	CostReport CostReportCmd `cmd:"" name:"cost-report" help:"Report accumulated provider cost for the current process."`

	LogLevel  string `help:"Log level: debug, info, warn, error." default:"info"`
	LogFile   string `help:"Log file path (default: stderr)."`
	LogFormat string `help:"Log format: simple, text, json." default:"simple"`

	Provider string `help:"Override THINKLANG_PROVIDER for this invocation."`
	Model    string `help:"Override THINKLANG_MODEL for this invocation."`

	Version kong.VersionFlag `short:"v" help:"Print version and exit."`
}

func main() {
	cli := &CLI{}
	parser := kong.Parse(cli,
		kong.Name("thinklang"),
		kong.Description("Compile and run ThinkLang programs."),
		kong.UsageOnError(),
		kong.Vars{"version": thinklang.GetVersion().String()},
	)

	if err := setupLogging(cli); err != nil {
		parser.FatalIfErrorf(err)
	}
	if err := config.LoadEnvFiles(); err != nil {
		parser.FatalIfErrorf(err)
	}

	err := parser.Run(cli)
	parser.FatalIfErrorf(err)
}

func setupLogging(cli *CLI) error {
	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	output := os.Stderr
	if cli.LogFile != "" {
		file, _, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	logger.Init(level, output, cli.LogFormat)
	return nil
}

// defaultHandle resolves the runtime.Handle every subcommand executes
// against, honoring --provider/--model overrides over the environment
// defaults pkg/llms.AutoInit would otherwise use.
func defaultHandle(cli *CLI) (*runtime.Handle, error) {
	if cli.Provider == "" && cli.Model == "" {
		return runtime.DefaultHandle()
	}
	providerType := cli.Provider
	if providerType == "" {
		providerType = config.DefaultProviderType()
	}
	model := cli.Model
	if model == "" {
		model = config.DefaultModel()
	}
	p, err := llms.DefaultRegistry.Build(providerType, model)
	if err != nil {
		return nil, fmt.Errorf("building provider %q: %w", providerType, err)
	}
	return runtime.NewHandle(p), nil
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
