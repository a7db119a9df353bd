package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/template"
)

// CloudFormation types the rules look at.
const (
	typeFunction   = "AWS::Lambda::Function"
	typePermission = "AWS::Lambda::Permission"
	typeMethod     = "AWS::ApiGateway::Method"
	typeAuthorizer = "AWS::ApiGateway::Authorizer"
	typeDeployment = "AWS::ApiGateway::Deployment"
)

const apiGatewayPrincipal = "apigateway.amazonaws.com"

// Rule checks one wiring property of a template.
type Rule struct {
	ID          string
	Description string
	Check       func(t *authgate.Template, refs map[string][]template.Reference) []Issue
}

// Rules returns the structural rules in ID order.
func Rules() []Rule {
	return []Rule{
		{ID: "AG001", Description: "Lambda permissions target a declared function", Check: checkPermissionTargets},
		{ID: "AG002", Description: "Methods are guarded by a declared custom authorizer", Check: checkMethodGuards},
		{ID: "AG003", Description: "Authorizer result TTL is within 0..3600 seconds", Check: checkAuthorizerTTL},
		{ID: "AG004", Description: "Cached REQUEST authorizers name the Authorization header as identity source", Check: checkIdentitySource},
		{ID: "AG005", Description: "Deployments depend on every method of their API", Check: checkDeploymentOrder},
		{ID: "AG006", Description: "Functions invoked by API Gateway have an invoke permission", Check: checkInvokePermissions},
	}
}

// CheckStructure runs every rule over t.
func CheckStructure(t *authgate.Template) []Issue {
	refs := template.References(t)

	var issues []Issue
	for _, rule := range Rules() {
		issues = append(issues, rule.Check(t, refs)...)
	}
	sortIssues(issues)
	return issues
}

func checkPermissionTargets(t *authgate.Template, _ map[string][]template.Reference) []Issue {
	var issues []Issue
	for _, name := range resourcesOfType(t, typePermission) {
		props := t.Resources[name].Properties

		target := refTarget(props["FunctionName"])
		if def, ok := t.Resources[target]; !ok || def.Type != typeFunction {
			issues = append(issues, Issue{
				Rule: "AG001", Level: LevelError, Resource: name,
				Message: "FunctionName does not reference a Lambda function in this template",
			})
		}

		if props["Principal"] == apiGatewayPrincipal && props["SourceArn"] == nil {
			issues = append(issues, Issue{
				Rule: "AG001", Level: LevelWarning, Resource: name,
				Message: "API Gateway permission without SourceArn lets any API invoke the function",
			})
		}
	}
	return issues
}

func checkMethodGuards(t *authgate.Template, _ map[string][]template.Reference) []Issue {
	var issues []Issue
	for _, name := range resourcesOfType(t, typeMethod) {
		props := t.Resources[name].Properties
		if props["HttpMethod"] == "OPTIONS" {
			continue
		}

		if props["AuthorizationType"] != "CUSTOM" {
			issues = append(issues, Issue{
				Rule: "AG002", Level: LevelError, Resource: name,
				Message: fmt.Sprintf("AuthorizationType is %v, want CUSTOM", props["AuthorizationType"]),
			})
			continue
		}

		target := refTarget(props["AuthorizerId"])
		if def, ok := t.Resources[target]; !ok || def.Type != typeAuthorizer {
			issues = append(issues, Issue{
				Rule: "AG002", Level: LevelError, Resource: name,
				Message: "AuthorizerId does not reference an authorizer in this template",
			})
		}
	}
	return issues
}

func checkAuthorizerTTL(t *authgate.Template, _ map[string][]template.Reference) []Issue {
	maxTTL := int(config.MaxResultTTL.Seconds())

	var issues []Issue
	for _, name := range resourcesOfType(t, typeAuthorizer) {
		raw, present := t.Resources[name].Properties["AuthorizerResultTtlInSeconds"]
		if !present {
			continue
		}
		ttl, ok := number(raw)
		if !ok || ttl < 0 || ttl > maxTTL {
			issues = append(issues, Issue{
				Rule: "AG003", Level: LevelError, Resource: name,
				Message: fmt.Sprintf("AuthorizerResultTtlInSeconds %v outside 0..%d", raw, maxTTL),
			})
		}
	}
	return issues
}

func checkIdentitySource(t *authgate.Template, _ map[string][]template.Reference) []Issue {
	var issues []Issue
	for _, name := range resourcesOfType(t, typeAuthorizer) {
		props := t.Resources[name].Properties
		if props["Type"] != "REQUEST" {
			continue
		}
		if ttl, ok := number(props["AuthorizerResultTtlInSeconds"]); ok && ttl == 0 {
			continue
		}

		source, _ := props["IdentitySource"].(string)
		switch {
		case source == "":
			issues = append(issues, Issue{
				Rule: "AG004", Level: LevelError, Resource: name,
				Message: "REQUEST authorizer with caching enabled needs an IdentitySource",
			})
		case !strings.Contains(strings.ToLower(source), "method.request.header.authorization"):
			issues = append(issues, Issue{
				Rule: "AG004", Level: LevelWarning, Resource: name,
				Message: fmt.Sprintf("IdentitySource %q does not include the Authorization header", source),
			})
		}
	}
	return issues
}

func checkDeploymentOrder(t *authgate.Template, _ map[string][]template.Reference) []Issue {
	var issues []Issue
	for _, name := range resourcesOfType(t, typeDeployment) {
		def := t.Resources[name]
		api := refTarget(def.Properties["RestApiId"])

		dependsOn := make(map[string]bool, len(def.DependsOn))
		for _, dep := range def.DependsOn {
			dependsOn[dep] = true
		}

		for _, method := range resourcesOfType(t, typeMethod) {
			if refTarget(t.Resources[method].Properties["RestApiId"]) != api {
				continue
			}
			if !dependsOn[method] {
				issues = append(issues, Issue{
					Rule: "AG005", Level: LevelError, Resource: name,
					Message: fmt.Sprintf("deployment does not depend on method %s", method),
				})
			}
		}
	}
	return issues
}

func checkInvokePermissions(t *authgate.Template, refs map[string][]template.Reference) []Issue {
	permitted := make(map[string]bool)
	for _, name := range resourcesOfType(t, typePermission) {
		props := t.Resources[name].Properties
		if props["Principal"] == apiGatewayPrincipal {
			permitted[refTarget(props["FunctionName"])] = true
		}
	}

	var issues []Issue
	for _, name := range append(resourcesOfType(t, typeMethod), resourcesOfType(t, typeAuthorizer)...) {
		for _, ref := range refs[name] {
			if def, ok := t.Resources[ref.Target]; !ok || def.Type != typeFunction {
				continue
			}
			if !permitted[ref.Target] {
				issues = append(issues, Issue{
					Rule: "AG006", Level: LevelError, Resource: name,
					Message: fmt.Sprintf("function %s has no invoke permission for %s", ref.Target, apiGatewayPrincipal),
				})
			}
		}
	}
	return issues
}

// resourcesOfType returns the sorted names of resources with the given type.
func resourcesOfType(t *authgate.Template, cfnType string) []string {
	var names []string
	for name, def := range t.Resources {
		if def.Type == cfnType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// refTarget returns the logical name in a Ref or Fn::GetAtt value.
func refTarget(v any) string {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return ""
	}
	if target, ok := m["Ref"].(string); ok {
		return target
	}
	switch args := m["Fn::GetAtt"].(type) {
	case []any:
		if len(args) > 0 {
			target, _ := args[0].(string)
			return target
		}
	case string:
		target, _, _ := strings.Cut(args, ".")
		return target
	}
	return ""
}

func number(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}
