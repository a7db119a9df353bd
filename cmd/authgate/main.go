// Command authgate synthesizes, checks and locally serves an API Gateway
// guarded by a Lambda REQUEST authorizer.
//
// Usage:
//
//	authgate synth                     Generate the CloudFormation template
//	authgate validate                  Check the template wiring and run cfn-lint
//	authgate graph                     Render the resource graph
//	authgate diff --topologies         Compare the two deployment topologies
//	authgate serve                     Run the gateway locally
//	authgate version                   Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "authgate",
		Short: "API Gateway with a Lambda request authorizer",
		Long: `authgate declares an API Gateway whose single GET /check endpoint is
guarded by a Lambda REQUEST authorizer, and renders it as CloudFormation.

Deployment settings come from the environment (or --env-file):

    DOMAIN_NAME=api.example.com
    HOSTED_ZONE_ID=Z0123456789              # Route 53 managed DNS, or
    API_GATEWAY_CERTIFICATE_ARN=arn:aws:... # externally managed DNS
    CDK_DEFAULT_REGION=us-east-1
    CDK_DEFAULT_ACCOUNT=111122223333

Then generate the template:

    authgate synth -o template.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file first")

	rootCmd.AddCommand(
		newSynthCmd(&envFile),
		newValidateCmd(&envFile),
		newGraphCmd(&envFile),
		newDiffCmd(&envFile),
		newServeCmd(&envFile),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "authgate %s\n", getVersion())
		},
	}
}
