// Package stack synthesizes the CloudFormation template of the authgate
// deployment: a REST API whose single GET /check method is guarded by a
// Lambda REQUEST authorizer and served by a Lambda backend, published under a
// custom domain.
//
// Two topologies share everything but the certificate and DNS wiring:
// route53 issues the certificate in a hosted zone and declares an alias
// record; external-dns uses an existing certificate and exports the regional
// target for whoever manages the zone.
package stack

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/template"
)

// Parameter names.
const (
	ParamArtifactBucket    = "ArtifactBucket"
	ParamBackendCodeKey    = "BackendCodeKey"
	ParamAuthorizerCodeKey = "AuthorizerCodeKey"
)

// Resource logical names.
const (
	LambdaExecutionRole        = "LambdaExecutionRole"
	BackendFunction            = "BackendFunction"
	AuthorizerFunction         = "AuthorizerFunction"
	RestAPI                    = "RestAPI"
	CheckResource              = "CheckResource"
	CheckMethod                = "CheckMethod"
	RequestAuthorizer          = "RequestAuthorizer"
	APIDeployment              = "APIDeployment"
	BackendInvokePermission    = "BackendInvokePermission"
	AuthorizerInvokePermission = "AuthorizerInvokePermission"
	APICertificate             = "APICertificate"
	APIDomainName              = "APIDomainName"
	APIBasePathMapping         = "APIBasePathMapping"
	APIAliasRecord             = "APIAliasRecord"
)

// Output names.
const (
	OutputAPIEndpoint     = "ApiEndpoint"
	OutputCustomDomainURL = "CustomDomainURL"
	OutputDomainTarget    = "DomainTarget"
)

// CheckPath is the path part of the protected resource.
const CheckPath = "check"

// IdentitySource lists the request values the authorizer result is cached by,
// in both casings the header may arrive with.
const IdentitySource = "method.request.header.Authorization,method.request.header.authorization"

// Synthesize builds the template for d. Settings the topology needs but d
// lacks are reported together, each wrapping config.ErrConfigurationMissing.
func Synthesize(d config.Deployment) (*authgate.Template, error) {
	if err := check(d); err != nil {
		return nil, err
	}

	b := template.NewBuilder(description(d))

	addParameters(b)
	addCompute(b)
	addAPI(b, d)
	addDomain(b, d)
	addOutputs(b, d)

	tmpl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building %s template: %w", d.Topology, err)
	}
	return tmpl, nil
}

// Result wraps Synthesize for the CLI's JSON output.
func Result(d config.Deployment) authgate.BuildResult {
	tmpl, err := Synthesize(d)
	if err != nil {
		var msgs []string
		if merr, ok := err.(*multierror.Error); ok {
			for _, e := range merr.Errors {
				msgs = append(msgs, e.Error())
			}
		} else {
			msgs = []string{err.Error()}
		}
		return authgate.BuildResult{Success: false, Topology: string(d.Topology), Errors: msgs}
	}

	resources, err := template.Order(tmpl)
	if err != nil {
		return authgate.BuildResult{Success: false, Topology: string(d.Topology), Errors: []string{err.Error()}}
	}
	return authgate.BuildResult{
		Success:   true,
		Topology:  string(d.Topology),
		Template:  tmpl,
		Resources: resources,
	}
}

func check(d config.Deployment) error {
	var errs *multierror.Error
	missing := func(name string) {
		errs = multierror.Append(errs, fmt.Errorf("%w: %s", config.ErrConfigurationMissing, name))
	}

	if d.DomainName == "" {
		missing(config.EnvDomainName)
	}
	switch d.Topology {
	case config.TopologyRoute53:
		if d.HostedZoneID == "" {
			missing(config.EnvHostedZoneID)
		}
	case config.TopologyExternalDNS:
		if d.CertificateARN == "" {
			missing(config.EnvCertificateARN)
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown topology %q", d.Topology))
	}
	if d.ResultTTL < 0 || d.ResultTTL > config.MaxResultTTL {
		errs = multierror.Append(errs, fmt.Errorf("result ttl %s out of range [0, %s]", d.ResultTTL, config.MaxResultTTL))
	}
	return errs.ErrorOrNil()
}

func description(d config.Deployment) string {
	desc := fmt.Sprintf("authgate: REST API with Lambda REQUEST authorizer on %s (%s topology)", d.DomainName, d.Topology)
	if d.Region != "" && d.Account != "" {
		desc += fmt.Sprintf(" for %s/%s", d.Account, d.Region)
	}
	return desc
}

func stage(d config.Deployment) string {
	if d.Stage == "" {
		return config.DefaultStage
	}
	return d.Stage
}

func addParameters(b *template.Builder) {
	b.AddParameter(ParamArtifactBucket, authgate.Parameter{
		Type:        "String",
		Description: "S3 bucket holding the Lambda deployment packages",
	})
	b.AddParameter(ParamBackendCodeKey, authgate.Parameter{
		Type:        "String",
		Description: "S3 key of the backend package (zip with a bootstrap binary)",
		Default:     "backend.zip",
	})
	b.AddParameter(ParamAuthorizerCodeKey, authgate.Parameter{
		Type:        "String",
		Description: "S3 key of the authorizer package (zip with a bootstrap binary)",
		Default:     "authorizer.zip",
	})
}
