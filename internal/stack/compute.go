package stack

import (
	"github.com/lex00/authgate-aws-go/internal/template"
	. "github.com/lex00/authgate-aws-go/intrinsics"
	"github.com/lex00/authgate-aws-go/resources/iam"
	"github.com/lex00/authgate-aws-go/resources/lambda"
)

// Lambda settings shared by both functions.
const (
	Runtime      = "provided.al2023"
	Handler      = "bootstrap"
	Architecture = "arm64"
	Timeout      = 10
	MemorySize   = 128
)

func addCompute(b *template.Builder) {
	b.AddResource(LambdaExecutionRole, iam.Role{
		Description: "Execution role of the authgate functions",
		AssumeRolePolicyDocument: NewPolicyDocument(PolicyStatement{
			Effect:    "Allow",
			Principal: ServicePrincipal{"lambda.amazonaws.com"},
			Action:    "sts:AssumeRole",
		}),
		ManagedPolicyArns: []any{
			Join{Delimiter: "", Values: []any{"arn:", AWS_PARTITION, ":iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"}},
		},
	})

	b.AddResource(BackendFunction, function(
		"Answers authorized requests on /check",
		ParamBackendCodeKey,
	))
	b.AddResource(AuthorizerFunction, function(
		"REQUEST authorizer for the authgate API",
		ParamAuthorizerCodeKey,
	))

	b.AddResource(BackendInvokePermission, invokePermission(BackendFunction))
	b.AddResource(AuthorizerInvokePermission, invokePermission(AuthorizerFunction))
}

func function(description, codeKeyParam string) lambda.Function {
	return lambda.Function{
		Description:   description,
		Runtime:       Runtime,
		Handler:       Handler,
		Architectures: []string{Architecture},
		Code: lambda.Function_Code{
			S3Bucket: RefTo(ParamArtifactBucket),
			S3Key:    RefTo(codeKeyParam),
		},
		Role:       Attr(LambdaExecutionRole, "Arn"),
		Timeout:    Timeout,
		MemorySize: MemorySize,
		Environment: &lambda.Function_Environment{
			Variables: map[string]any{"LOG_LEVEL": "info"},
		},
	}
}

// invokePermission lets API Gateway call fn from any stage, method and
// resource of the API.
func invokePermission(fn string) lambda.Permission {
	return lambda.Permission{
		FunctionName: Attr(fn, "Arn"),
		Action:       "lambda:InvokeFunction",
		Principal:    "apigateway.amazonaws.com",
		SourceArn:    ExecuteAPISourceArn(RefTo(RestAPI)),
	}
}
