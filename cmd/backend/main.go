// Command backend is the Lambda proxy integration behind GET /check.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lex00/authgate-aws-go/internal/backend"
	"github.com/lex00/authgate-aws-go/internal/logging"
)

func main() {
	logger := logging.FromEnv().Named("backend")
	defer func() { _ = logger.Sync() }()

	lambda.Start(backend.NewHandler(logger).Handle)
}
