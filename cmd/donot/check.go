package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/internetimagery/donot"
	"github.com/internetimagery/donot/pkg/object"
)

// scenario is one entry in a check file: an expression, the globals it
// runs with, and either the expected rendering or an expected error
// fragment.
type scenario struct {
	Name    string                 `yaml:"name"`
	Expr    string                 `yaml:"expr"`
	Env     map[string]interface{} `yaml:"env"`
	Want    string                 `yaml:"want"`
	WantErr string                 `yaml:"want_err"`
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.yaml>",
		Short: "Run a file of expression scenarios",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var scenarios []scenario
			if err := yaml.Unmarshal(data, &scenarios); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			failed := 0
			for _, sc := range scenarios {
				if err := runScenario(sc); err != nil {
					failed++
					fmt.Printf("%s %s: %v\n", paint("FAIL", colorRed, os.Stdout), sc.Name, err)
					continue
				}
				fmt.Printf("%s %s\n", paint("ok", colorGreen, os.Stdout), sc.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
			}
			return nil
		},
	}
}

func runScenario(sc scenario) error {
	env := donot.Env{}
	for name, value := range sc.Env {
		obj, err := yamlObject(value)
		if err != nil {
			return fmt.Errorf("env %q: %w", name, err)
		}
		env[name] = obj
	}

	result, err := donot.Eval(sc.Expr, env)
	if sc.WantErr != "" {
		if err == nil {
			return fmt.Errorf("want error containing %q, got %s", sc.WantErr, result.Inspect())
		}
		if !strings.Contains(err.Error(), sc.WantErr) {
			return fmt.Errorf("want error containing %q, got %q", sc.WantErr, err.Error())
		}
		return nil
	}
	if err != nil {
		return err
	}
	if got := result.Inspect(); got != sc.Want {
		return fmt.Errorf("want %s, got %s", sc.Want, got)
	}
	return nil
}

// yamlObject converts a decoded yaml value into a runtime object.
func yamlObject(v interface{}) (object.Object, error) {
	switch val := v.(type) {
	case int:
		return &object.Integer{Value: int64(val)}, nil
	case int64:
		return &object.Integer{Value: val}, nil
	case float64:
		return &object.Float{Value: val}, nil
	case bool:
		return object.FromBool(val), nil
	case string:
		return &object.String{Value: val}, nil
	case nil:
		return object.NIL, nil
	case []interface{}:
		elements := make([]object.Object, len(val))
		for i, el := range val {
			obj, err := yamlObject(el)
			if err != nil {
				return nil, err
			}
			elements[i] = obj
		}
		return &object.List{Elements: elements}, nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
}
