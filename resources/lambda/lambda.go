// Package lambda contains the AWS::Lambda resource types used by the authgate stack.
package lambda

// Function is AWS::Lambda::Function.
type Function struct {
	FunctionName  any                   `json:"FunctionName,omitempty"`
	Description   string                `json:"Description,omitempty"`
	Runtime       string                `json:"Runtime,omitempty"`
	Handler       string                `json:"Handler,omitempty"`
	Architectures []string              `json:"Architectures,omitempty"`
	Code          Function_Code         `json:"Code"`
	Role          any                   `json:"Role"`
	Timeout       int                   `json:"Timeout,omitempty"`
	MemorySize    int                   `json:"MemorySize,omitempty"`
	Environment   *Function_Environment `json:"Environment,omitempty"`
}

// ResourceType implements authgate.Resource.
func (Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code locates the deployment package. Go functions ship a zip with a
// bootstrap binary, so ZipFile is only useful for interpreted runtimes.
type Function_Code struct {
	S3Bucket any    `json:"S3Bucket,omitempty"`
	S3Key    any    `json:"S3Key,omitempty"`
	ZipFile  string `json:"ZipFile,omitempty"`
}

// Function_Environment holds environment variables for the function.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Permission is AWS::Lambda::Permission.
type Permission struct {
	FunctionName any    `json:"FunctionName"`
	Action       string `json:"Action"`
	Principal    string `json:"Principal"`
	SourceArn    any    `json:"SourceArn,omitempty"`
}

// ResourceType implements authgate.Resource.
func (Permission) ResourceType() string { return "AWS::Lambda::Permission" }
