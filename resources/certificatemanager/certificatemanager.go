// Package certificatemanager contains the AWS::CertificateManager resource
// types used by the authgate stack.
package certificatemanager

// Certificate is AWS::CertificateManager::Certificate.
type Certificate struct {
	DomainName              any                                  `json:"DomainName"`
	ValidationMethod        string                               `json:"ValidationMethod,omitempty"`
	DomainValidationOptions []Certificate_DomainValidationOption `json:"DomainValidationOptions,omitempty"`
}

// ResourceType implements authgate.Resource.
func (Certificate) ResourceType() string { return "AWS::CertificateManager::Certificate" }

// Certificate_DomainValidationOption names the hosted zone that receives the
// DNS validation record for a domain.
type Certificate_DomainValidationOption struct {
	DomainName   any `json:"DomainName"`
	HostedZoneId any `json:"HostedZoneId,omitempty"`
}
