package authgate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTemplate_MarshalJSON_OmitsEmptySections(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"RestAPI": {Type: "AWS::ApiGateway::RestApi"},
		},
	}

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources": {"RestAPI": {"Type": "AWS::ApiGateway::RestApi"}}
	}`, string(data))
}

func TestTemplate_MarshalYAML(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "authorizer stack",
		Resources: map[string]ResourceDef{
			"APIDeployment": {
				Type:       "AWS::ApiGateway::Deployment",
				Properties: map[string]any{"StageName": "prod"},
				DependsOn:  []string{"CheckMethod"},
			},
		},
		Outputs: map[string]Output{
			"ApiEndpoint": {
				Description: "Invoke URL",
				Value:       "https://example.com",
				Export:      &OutputExport{Name: "endpoint"},
			},
		},
	}

	data, err := yaml.Marshal(tmpl)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "authorizer stack", decoded["Description"])

	resources := decoded["Resources"].(map[string]any)
	deployment := resources["APIDeployment"].(map[string]any)
	assert.Equal(t, []any{"CheckMethod"}, deployment["DependsOn"])

	outputs := decoded["Outputs"].(map[string]any)
	endpoint := outputs["ApiEndpoint"].(map[string]any)
	assert.Equal(t, map[string]any{"Name": "endpoint"}, endpoint["Export"])
}

func TestBuildResult_JSON(t *testing.T) {
	result := BuildResult{
		Success:   false,
		Topology:  "route53",
		Errors:    []string{"configuration missing: DOMAIN_NAME"},
		Resources: nil,
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "route53", decoded["topology"])
	assert.NotContains(t, decoded, "resources")
}

func TestDiffSummary_JSON(t *testing.T) {
	data, err := json.Marshal(DiffSummary{Added: 1, Removed: 2, Total: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":1,"removed":2,"modified":0,"outputs":0,"total":3}`, string(data))
}
