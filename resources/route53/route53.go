// Package route53 contains the AWS::Route53 resource types used by the authgate stack.
package route53

// RecordSet is AWS::Route53::RecordSet.
type RecordSet struct {
	HostedZoneId    any                    `json:"HostedZoneId,omitempty"`
	Name            any                    `json:"Name"`
	Type_           string                 `json:"Type"`
	AliasTarget     *RecordSet_AliasTarget `json:"AliasTarget,omitempty"`
	TTL             string                 `json:"TTL,omitempty"`
	ResourceRecords []any                  `json:"ResourceRecords,omitempty"`
}

// ResourceType implements authgate.Resource.
func (RecordSet) ResourceType() string { return "AWS::Route53::RecordSet" }

// RecordSet_AliasTarget points an alias record at another AWS endpoint.
type RecordSet_AliasTarget struct {
	DNSName              any  `json:"DNSName"`
	HostedZoneId         any  `json:"HostedZoneId"`
	EvaluateTargetHealth bool `json:"EvaluateTargetHealth,omitempty"`
}
