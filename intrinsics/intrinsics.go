// Package intrinsics provides the CloudFormation intrinsic functions used by
// the authgate stack.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "RestAPI"}                  → {"Ref": "RestAPI"}
//	GetAtt{LogicalName: "Fn", Attribute: "Arn"}  → {"Fn::GetAtt": ["Fn", "Arn"]}
//	Sub{String: "${AWS::StackName}-api"}         → {"Fn::Sub": "${AWS::StackName}-api"}
//	Join{Delimiter: "", Values: []any{...}}      → {"Fn::Join": ["", [...]]}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// RefTo returns a Ref to the named resource or parameter.
func RefTo(logicalName string) Ref {
	return Ref{LogicalName: logicalName}
}

// Attr returns a GetAtt for an attribute of the named resource.
func Attr(logicalName, attribute string) GetAtt {
	return GetAtt{LogicalName: logicalName, Attribute: attribute}
}

// Any creates a []any slice from the given items.
// Use for fields typed as []any that accept mixed types or intrinsics.
func Any(items ...any) []any {
	return items
}
