package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/stack"
	"github.com/lex00/authgate-aws-go/internal/template"
)

func newSynthCmd(envFile *string) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
		topology     string
		asResult     bool
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate the CloudFormation template",
		Long: `Synth reads the deployment settings and generates the CloudFormation template
for the selected topology.

Examples:
    authgate synth
    authgate synth -o template.json
    authgate synth --format yaml --topology external-dns
    authgate synth --result            # JSON build result with resource order`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeployment(*envFile, topology)
			if err != nil {
				return err
			}
			result := stack.Result(d)
			if asResult {
				return outputBuildResult(cmd.OutOrStdout(), result, outputFile)
			}
			return outputTemplate(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&topology, "topology", "t", "", "Force the topology: route53 or external-dns")
	cmd.Flags().BoolVar(&asResult, "result", false, "Print the JSON build result instead of the bare template")

	return cmd
}

func outputTemplate(stdout, stderr io.Writer, result authgate.BuildResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(stderr, e)
		}
		return fmt.Errorf("synth failed")
	}

	data, err := template.Render(&result.Template, format)
	if err != nil {
		return err
	}
	return writeOutput(stdout, data, outputFile)
}

func outputBuildResult(stdout io.Writer, result authgate.BuildResult, outputFile string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if err := writeOutput(stdout, data, outputFile); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("synth failed")
	}
	return nil
}

func writeOutput(stdout io.Writer, data []byte, outputFile string) error {
	if outputFile == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	return os.WriteFile(outputFile, data, 0o644)
}
