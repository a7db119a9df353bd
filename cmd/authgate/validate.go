package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/differ"
	"github.com/lex00/authgate-aws-go/internal/stack"
	"github.com/lex00/authgate-aws-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking template wiring.
func newValidateCmd(envFile *string) *cobra.Command {
	var (
		outputFormat string
		topology     string
		skipLint     bool
	)

	cmd := &cobra.Command{
		Use:   "validate [template]",
		Short: "Check the authorizer wiring and run cfn-lint",
		Long: `Validate checks a template. Without an argument the template is synthesized
from the deployment settings first.

Checks performed:
  - Lambda permissions target declared functions and are scoped to the API
  - Methods are guarded by a declared custom authorizer
  - The authorizer result TTL is within 0..3600 seconds
  - Cached REQUEST authorizers read the Authorization header
  - Deployments wait for every method
  - cfn-lint rules over the rendered template

Examples:
    authgate validate
    authgate validate template.yaml --format json
    authgate validate --skip-lint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := templateFor(args, *envFile, topology)
			if err != nil {
				return err
			}
			result, err := validation.Validate(tmpl, validation.Options{SkipCfnLint: skipLint})
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return outputValidateResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&topology, "topology", "t", "", "Force the topology when synthesizing")
	cmd.Flags().BoolVar(&skipLint, "skip-lint", false, "Run the structural checks only")

	return cmd
}

// templateFor loads the template named in args, or synthesizes one.
func templateFor(args []string, envFile, topology string) (*authgate.Template, error) {
	if len(args) == 1 {
		return differ.LoadTemplate(args[0])
	}
	d, err := loadDeployment(envFile, topology)
	if err != nil {
		return nil, err
	}
	return stack.Synthesize(d)
}

func outputValidateResult(w io.Writer, result authgate.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("validation failed: %d errors", len(result.Errors))
	}
	return nil
}
