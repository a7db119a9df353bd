package stack

import (
	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/template"
	. "github.com/lex00/authgate-aws-go/intrinsics"
	"github.com/lex00/authgate-aws-go/resources/apigateway"
	"github.com/lex00/authgate-aws-go/resources/certificatemanager"
	"github.com/lex00/authgate-aws-go/resources/route53"
)

// SecurityPolicy is the minimum TLS version of the custom domain.
const SecurityPolicy = "TLS_1_2"

func addDomain(b *template.Builder, d config.Deployment) {
	var certificate any = d.CertificateARN
	if d.Topology == config.TopologyRoute53 {
		b.AddResource(APICertificate, certificatemanager.Certificate{
			DomainName:       d.DomainName,
			ValidationMethod: "DNS",
			DomainValidationOptions: []certificatemanager.Certificate_DomainValidationOption{
				{DomainName: d.DomainName, HostedZoneId: d.HostedZoneID},
			},
		})
		certificate = RefTo(APICertificate)
	}

	// Regional domains need the certificate in the stack's own region.
	b.AddResource(APIDomainName, apigateway.DomainName{
		DomainName:             d.DomainName,
		RegionalCertificateArn: certificate,
		EndpointConfiguration: &apigateway.DomainName_EndpointConfiguration{
			Types: []string{"REGIONAL"},
		},
		SecurityPolicy: SecurityPolicy,
	})

	b.AddResource(APIBasePathMapping, apigateway.BasePathMapping{
		DomainName: RefTo(APIDomainName),
		RestApiId:  RefTo(RestAPI),
		Stage:      stage(d),
	}, APIDeployment)

	if d.Topology == config.TopologyRoute53 {
		b.AddResource(APIAliasRecord, route53.RecordSet{
			HostedZoneId: d.HostedZoneID,
			Name:         d.DomainName,
			Type_:        "A",
			AliasTarget: &route53.RecordSet_AliasTarget{
				DNSName:      Attr(APIDomainName, "RegionalDomainName"),
				HostedZoneId: Attr(APIDomainName, "RegionalHostedZoneId"),
			},
		})
	}
}

func addOutputs(b *template.Builder, d config.Deployment) {
	b.AddOutput(OutputAPIEndpoint, authgate.Output{
		Description: "Default execute-api endpoint of the stage",
		Value:       StageURL(RefTo(RestAPI), stage(d)),
	})
	b.AddOutput(OutputCustomDomainURL, authgate.Output{
		Description: "Custom domain URL of the API",
		Value:       "https://" + d.DomainName,
	})

	target := authgate.Output{
		Description: "Regional domain name the custom domain must resolve to",
		Value:       Attr(APIDomainName, "RegionalDomainName"),
	}
	if d.Topology == config.TopologyExternalDNS {
		target.Description += "; create a CNAME for " + d.DomainName + " pointing here"
		target.Export = &authgate.OutputExport{Name: Sub{String: "${AWS::StackName}-domain-target"}}
	}
	b.AddOutput(OutputDomainTarget, target)
}
