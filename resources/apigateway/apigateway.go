// Package apigateway contains the AWS::ApiGateway resource types used by the
// authgate stack.
package apigateway

// RestApi is AWS::ApiGateway::RestApi.
type RestApi struct {
	Name                      any                            `json:"Name,omitempty"`
	Description               any                            `json:"Description,omitempty"`
	EndpointConfiguration     *RestApi_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
	DisableExecuteApiEndpoint bool                           `json:"DisableExecuteApiEndpoint,omitempty"`
}

// ResourceType implements authgate.Resource.
func (RestApi) ResourceType() string { return "AWS::ApiGateway::RestApi" }

// RestApi_EndpointConfiguration selects EDGE, REGIONAL or PRIVATE endpoints.
type RestApi_EndpointConfiguration struct {
	Types []string `json:"Types,omitempty"`
}

// Resource is AWS::ApiGateway::Resource, one path segment of a RestApi.
type Resource struct {
	RestApiId any    `json:"RestApiId"`
	ParentId  any    `json:"ParentId"`
	PathPart  string `json:"PathPart"`
}

// ResourceType implements authgate.Resource.
func (Resource) ResourceType() string { return "AWS::ApiGateway::Resource" }

// Method is AWS::ApiGateway::Method.
type Method struct {
	RestApiId         any                     `json:"RestApiId"`
	ResourceId        any                     `json:"ResourceId"`
	HttpMethod        string                  `json:"HttpMethod"`
	AuthorizationType string                  `json:"AuthorizationType"`
	AuthorizerId      any                     `json:"AuthorizerId,omitempty"`
	Integration       *Method_Integration     `json:"Integration,omitempty"`
	MethodResponses   []Method_MethodResponse `json:"MethodResponses,omitempty"`
	RequestParameters map[string]bool         `json:"RequestParameters,omitempty"`
}

// ResourceType implements authgate.Resource.
func (Method) ResourceType() string { return "AWS::ApiGateway::Method" }

// Method_Integration configures the backend a Method forwards to.
type Method_Integration struct {
	Type_                 string `json:"Type"`
	IntegrationHttpMethod string `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any    `json:"Uri,omitempty"`
}

// Method_MethodResponse declares a status code the Method may return.
type Method_MethodResponse struct {
	StatusCode string `json:"StatusCode"`
}

// Authorizer is AWS::ApiGateway::Authorizer.
type Authorizer struct {
	Name                         any    `json:"Name"`
	RestApiId                    any    `json:"RestApiId"`
	Type_                        string `json:"Type"`
	AuthorizerUri                any    `json:"AuthorizerUri,omitempty"`
	IdentitySource               string `json:"IdentitySource,omitempty"`
	AuthorizerResultTtlInSeconds *int   `json:"AuthorizerResultTtlInSeconds,omitempty"`
}

// ResourceType implements authgate.Resource.
func (Authorizer) ResourceType() string { return "AWS::ApiGateway::Authorizer" }

// Deployment is AWS::ApiGateway::Deployment.
type Deployment struct {
	RestApiId   any    `json:"RestApiId"`
	StageName   string `json:"StageName,omitempty"`
	Description string `json:"Description,omitempty"`
}

// ResourceType implements authgate.Resource.
func (Deployment) ResourceType() string { return "AWS::ApiGateway::Deployment" }

// DomainName is AWS::ApiGateway::DomainName.
type DomainName struct {
	DomainName             any                               `json:"DomainName"`
	RegionalCertificateArn any                               `json:"RegionalCertificateArn,omitempty"`
	EndpointConfiguration  *DomainName_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
	SecurityPolicy         string                            `json:"SecurityPolicy,omitempty"`
}

// ResourceType implements authgate.Resource.
func (DomainName) ResourceType() string { return "AWS::ApiGateway::DomainName" }

// DomainName_EndpointConfiguration selects the custom domain endpoint type.
type DomainName_EndpointConfiguration struct {
	Types []string `json:"Types,omitempty"`
}

// BasePathMapping is AWS::ApiGateway::BasePathMapping.
type BasePathMapping struct {
	DomainName any    `json:"DomainName"`
	RestApiId  any    `json:"RestApiId"`
	Stage      string `json:"Stage,omitempty"`
	BasePath   string `json:"BasePath,omitempty"`
}

// ResourceType implements authgate.Resource.
func (BasePathMapping) ResourceType() string { return "AWS::ApiGateway::BasePathMapping" }
