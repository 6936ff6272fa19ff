package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/internetimagery/donot"
	"github.com/internetimagery/donot/pkg/object"
)

var envFlags []string

func main() {
	root := &cobra.Command{
		Use:           "donot",
		Short:         "Do-notation for monadic values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringArrayVar(&envFlags, "env", nil,
		"global binding as name=value (repeatable)")

	root.AddCommand(evalCmd(), disasmCmd(), checkCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, paint(err.Error(), colorRed, os.Stderr))
		os.Exit(1)
	}
}

func evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a do-expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvFlags()
			if err != nil {
				return err
			}
			if os.Getenv("DONOT_TRACE") != "" {
				expr, err := donot.Parse(args[0])
				if err != nil {
					return err
				}
				listing, err := donot.Disassemble(expr)
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stderr, listing)
			}
			result, err := donot.Eval(args[0], env)
			if err != nil {
				return err
			}
			fmt.Println(result.Inspect())
			return nil
		},
	}
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <expression>",
		Short: "Show the rewritten instruction listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := donot.Parse(args[0])
			if err != nil {
				return err
			}
			listing, err := donot.Disassemble(expr)
			if err != nil {
				return err
			}
			fmt.Print(listing)
			return nil
		},
	}
}

// parseEnvFlags turns repeated name=value flags into an environment.
// Values are read as int, float or bool when they look like one,
// otherwise as strings.
func parseEnvFlags() (donot.Env, error) {
	env := donot.Env{}
	for _, kv := range envFlags {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --env %q, want name=value", kv)
		}
		env[name] = literalObject(value)
	}
	return env, nil
}

func literalObject(s string) object.Object {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &object.Integer{Value: n}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &object.Float{Value: f}
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return object.FromBool(b)
	}
	return &object.String{Value: s}
}
