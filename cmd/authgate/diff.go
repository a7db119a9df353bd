package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/differ"
	"github.com/lex00/authgate-aws-go/internal/stack"
)

func newDiffCmd(envFile *string) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
		topologies   bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> <template2>",
		Short: "Compare two CloudFormation templates",
		Long: `Diff compares two templates resource by resource, including parameters and
outputs. With --topologies it synthesizes the route53 and external-dns
variants of the current settings and compares them; both HOSTED_ZONE_ID and
API_GATEWAY_CERTIFICATE_ARN must then be set.

Examples:
    authgate diff old.json new.json
    authgate diff old.yaml new.yaml --ignore-order
    authgate diff --topologies --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if topologies {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := differ.Options{IgnoreOrder: ignoreOrder}

			var (
				result *differ.Result
				err    error
			)
			if topologies {
				result, err = diffTopologies(*envFile, opts)
			} else {
				result, err = differ.CompareFiles(args[0], args[1], opts)
			}
			if err != nil {
				return err
			}
			return outputDiff(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")
	cmd.Flags().BoolVar(&topologies, "topologies", false, "Compare the route53 and external-dns stacks")

	return cmd
}

func diffTopologies(envFile string, opts differ.Options) (*differ.Result, error) {
	route53, err := loadDeployment(envFile, string(config.TopologyRoute53))
	if err != nil {
		return nil, err
	}
	external, err := loadDeployment(envFile, string(config.TopologyExternalDNS))
	if err != nil {
		return nil, err
	}

	t1, err := stack.Synthesize(route53)
	if err != nil {
		return nil, err
	}
	t2, err := stack.Synthesize(external)
	if err != nil {
		return nil, err
	}
	return differ.Compare(t1, t2, opts)
}

func outputDiff(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    any `json:"diff"`
			Summary any `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil

	case "text":
		if result.Empty() {
			fmt.Fprintln(w, "No differences")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s\n", e.Resource)
			for _, change := range e.Changes {
				fmt.Fprintf(w, "    %s\n", change)
			}
		}
		for _, change := range result.Diff.Outputs {
			fmt.Fprintf(w, "~ Outputs.%s\n", change)
		}
		s := result.Summary
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified, %d output changes\n", s.Added, s.Removed, s.Modified, s.Outputs)
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
