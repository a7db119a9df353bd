package stack

import (
	"fmt"

	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/template"
	. "github.com/lex00/authgate-aws-go/intrinsics"
	"github.com/lex00/authgate-aws-go/resources/apigateway"
)

func addAPI(b *template.Builder, d config.Deployment) {
	b.AddResource(RestAPI, apigateway.RestApi{
		Name:        Sub{String: "${AWS::StackName}-api"},
		Description: "authgate API",
		EndpointConfiguration: &apigateway.RestApi_EndpointConfiguration{
			Types: []string{"REGIONAL"},
		},
	})

	b.AddResource(CheckResource, apigateway.Resource{
		RestApiId: RefTo(RestAPI),
		ParentId:  Attr(RestAPI, "RootResourceId"),
		PathPart:  CheckPath,
	})

	ttl := int(d.ResultTTL.Seconds())
	b.AddResource(RequestAuthorizer, apigateway.Authorizer{
		Name:                         Sub{String: "${AWS::StackName}-authorizer"},
		RestApiId:                    RefTo(RestAPI),
		Type_:                        "REQUEST",
		AuthorizerUri:                LambdaInvocationURI(Attr(AuthorizerFunction, "Arn")),
		IdentitySource:               IdentitySource,
		AuthorizerResultTtlInSeconds: &ttl,
	})

	b.AddResource(CheckMethod, apigateway.Method{
		RestApiId:         RefTo(RestAPI),
		ResourceId:        RefTo(CheckResource),
		HttpMethod:        "GET",
		AuthorizationType: "CUSTOM",
		AuthorizerId:      RefTo(RequestAuthorizer),
		Integration: &apigateway.Method_Integration{
			Type_:                 "AWS_PROXY",
			IntegrationHttpMethod: "POST",
			Uri:                   LambdaInvocationURI(Attr(BackendFunction, "Arn")),
		},
	})

	// The stage only exists once the method does; an API without methods
	// cannot be deployed.
	b.AddResource(APIDeployment, apigateway.Deployment{
		RestApiId:   RefTo(RestAPI),
		StageName:   stage(d),
		Description: fmt.Sprintf("authgate %s stage", stage(d)),
	}, CheckMethod)
}
