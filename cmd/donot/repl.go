package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/internetimagery/donot"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// paint wraps s in an ANSI color when w is a terminal and color has
// not been disabled.
func paint(s, color string, w *os.File) string {
	if os.Getenv("DONOT_NO_COLOR") != "" {
		return s
	}
	if !isatty.IsTerminal(w.Fd()) && !isatty.IsCygwinTerminal(w.Fd()) {
		return s
	}
	return color + s + colorReset
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate expressions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvFlags()
			if err != nil {
				return err
			}

			interactive := isatty.IsTerminal(os.Stdin.Fd()) ||
				isatty.IsCygwinTerminal(os.Stdin.Fd())
			if interactive {
				fmt.Println("donot repl. Expressions read like comprehensions:")
				fmt.Println("  x + y for x in just(1) for y in just(2)")
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				if interactive {
					fmt.Print(">> ")
				}
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				if line == "" {
					continue
				}
				result, err := donot.Eval(line, env)
				if err != nil {
					fmt.Println(paint(err.Error(), colorRed, os.Stdout))
					continue
				}
				fmt.Println(result.Inspect())
			}
			return scanner.Err()
		},
	}
}
