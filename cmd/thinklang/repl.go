package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/thinklang/thinklang/pkg/checker"
	"github.com/thinklang/thinklang/pkg/codegen"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/runtime"
	"github.com/thinklang/thinklang/pkg/symtab"
)

// ReplCmd is the interactive read-eval-print loop of spec §6: dot-
// commands .exit/.clear/.help, multi-line input collected until
// braces balance. Each entry is parsed, checked, compiled, and
// executed as its own complete program against the session's shared
// runtime.Handle, so cost accumulates across entries; top-level
// bindings do not persist between entries (see DESIGN.md).
type ReplCmd struct{}

func (c *ReplCmd) Run(cli *CLI) error {
	handle, err := defaultHandle(cli)
	if err != nil {
		return err
	}

	fmt.Println("thinklang repl — .help for commands, .exit to quit")
	scanner := bufio.NewReader(os.Stdin)

	for {
		block, eof := readReplBlock(scanner)

		trimmed := strings.TrimSpace(block)
		switch {
		case trimmed == "":
			// nothing entered
		case strings.HasPrefix(trimmed, "."):
			if done := handleReplCommand(trimmed); done {
				return nil
			}
		default:
			if err := evalReplBlock(handle, trimmed); err != nil {
				fmt.Printf("Error: %s\n", err)
			}
		}

		if eof {
			fmt.Println()
			return nil
		}
	}
}

// readReplBlock prints the prompt, reads lines until curly braces
// balance (or a single non-brace line is entered), and returns the
// accumulated block.
func readReplBlock(r *bufio.Reader) (string, bool) {
	fmt.Print("> ")
	var buf strings.Builder
	depth := 0
	first := true

	for {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			return buf.String(), true
		}
		buf.WriteString(line)
		depth += strings.Count(line, "{") - strings.Count(line, "}")

		if err != nil {
			return buf.String(), true
		}
		if depth <= 0 {
			return buf.String(), false
		}
		if first {
			fmt.Print(". ")
		}
		first = false
	}
}

func handleReplCommand(cmd string) (exit bool) {
	switch strings.TrimSpace(cmd) {
	case ".exit":
		fmt.Println("bye")
		return true
	case ".clear":
		fmt.Print("\033[H\033[2J")
		return false
	case ".help":
		fmt.Println("  .exit   quit the repl")
		fmt.Println("  .clear  clear the screen")
		fmt.Println("  .help   show this message")
		return false
	default:
		fmt.Printf("unknown command: %s (try .help)\n", cmd)
		return false
	}
}

func evalReplBlock(handle *runtime.Handle, src string) error {
	prog, err := parser.Parse("<repl>", src)
	if err != nil {
		return err
	}

	types := symtab.NewTypeTable()
	checked := checker.Check(prog, types)
	if len(checked.Errors) > 0 {
		var msgs []string
		for _, d := range checked.Errors {
			msgs = append(msgs, d.Message)
		}
		return fmt.Errorf(strings.Join(msgs, "; "))
	}

	compiled, err := codegen.Compile(prog, types)
	if err != nil {
		return err
	}

	ex := runtime.NewExecutor(handle)
	for _, t := range compiled.Tools {
		ex.DefineTool(t.Config)
	}

	ctx := context.Background()
	for _, stmt := range compiled.Body {
		if _, err := stmt(ctx, ex, compiled.TopEnv); err != nil {
			return err
		}
	}
	return nil
}
