package intrinsics

// ExecuteAPISourceArn is the source ARN API Gateway presents when it invokes a
// Lambda function on behalf of any stage, method and path of restAPI.
func ExecuteAPISourceArn(restAPI any) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:",
			AWS_PARTITION,
			":execute-api:",
			AWS_REGION,
			":",
			AWS_ACCOUNT_ID,
			":",
			restAPI,
			"/*",
		},
	}
}

// LambdaInvocationURI is the API Gateway integration URI for a Lambda function.
// Used for both proxy integrations and REQUEST authorizers.
func LambdaInvocationURI(functionArn any) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:",
			AWS_PARTITION,
			":apigateway:",
			AWS_REGION,
			":lambda:path/2015-03-31/functions/",
			functionArn,
			"/invocations",
		},
	}
}

// StageURL is the default invoke URL of a REST API stage.
func StageURL(restAPI any, stage string) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"https://",
			restAPI,
			".execute-api.",
			AWS_REGION,
			".",
			AWS_URL_SUFFIX,
			"/",
			stage,
		},
	}
}
