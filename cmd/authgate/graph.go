package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/authgate-aws-go/internal/graph"
)

func newGraphCmd(envFile *string) *cobra.Command {
	var (
		outputFormat      string
		topology          string
		includeParameters bool
		clusterByType     bool
	)

	cmd := &cobra.Command{
		Use:   "graph [template]",
		Short: "Generate DOT graph of resource references",
		Long: `Generate a DOT or Mermaid format graph showing how the resources reference
each other. Without an argument the template is synthesized first.

The output can be rendered with Graphviz:
    authgate graph | dot -Tpng -o stack.png

Or used in GitHub markdown (Mermaid format):
    authgate graph -f mermaid

Examples:
    authgate graph
    authgate graph -p              # include parameters
    authgate graph -c              # cluster by service
    authgate graph template.json   # an existing template`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			tmpl, err := templateFor(args, *envFile, topology)
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:            graphFormat,
				IncludeParameters: includeParameters,
				ClusterByType:     clusterByType,
			}
			return gen.Generate(tmpl, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().StringVarP(&topology, "topology", "t", "", "Force the topology when synthesizing")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}
