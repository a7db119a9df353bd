// Command authorizer is the Lambda REQUEST authorizer deployed in front of
// GET /check. It allows a request only when the Authorization header is
// exactly "allow".
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lex00/authgate-aws-go/internal/authorizer"
	"github.com/lex00/authgate-aws-go/internal/logging"
)

func main() {
	logger := logging.FromEnv().Named("authorizer")
	defer func() { _ = logger.Sync() }()

	lambda.Start(authorizer.NewHandler(logger).Handle)
}
