package differ

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/stack"
	"github.com/lex00/authgate-aws-go/internal/template"
)

func TestCompare(t *testing.T) {
	t1 := &authgate.Template{
		Resources: map[string]authgate.ResourceDef{
			"Api":     {Type: "AWS::ApiGateway::RestApi", Properties: map[string]any{"Name": "api"}},
			"Backend": {Type: "AWS::Lambda::Function", Properties: map[string]any{"MemorySize": 128}},
		},
	}
	t2 := &authgate.Template{
		Resources: map[string]authgate.ResourceDef{
			"Api":        {Type: "AWS::ApiGateway::RestApi", Properties: map[string]any{"Name": "api-renamed"}},
			"Authorizer": {Type: "AWS::Lambda::Function", Properties: map[string]any{"MemorySize": 128}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)

	require.Len(t, result.Diff.Removed, 1)
	assert.Equal(t, "Backend", result.Diff.Removed[0].Resource)
	require.Len(t, result.Diff.Added, 1)
	assert.Equal(t, "Authorizer", result.Diff.Added[0].Resource)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, "Api", result.Diff.Modified[0].Resource)
	assert.Equal(t, []string{"Name modified"}, result.Diff.Modified[0].Changes)

	assert.Equal(t, authgate.DiffSummary{Added: 1, Removed: 1, Modified: 1, Total: 3}, result.Summary)
	assert.False(t, result.Empty())
}

func TestCompareIdentical(t *testing.T) {
	tmpl := &authgate.Template{
		Resources: map[string]authgate.ResourceDef{
			"Api": {Type: "AWS::ApiGateway::RestApi", Properties: map[string]any{"Name": "api"}},
		},
		Outputs: map[string]authgate.Output{"Url": {Value: "https://api.example.com"}},
	}

	result, err := Compare(tmpl, tmpl, Options{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestCompareNil(t *testing.T) {
	_, err := Compare(nil, &authgate.Template{}, Options{})
	assert.Error(t, err)
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &authgate.Template{Resources: map[string]authgate.ResourceDef{"Cert": {Type: "AWS::CertificateManager::Certificate"}}}
	t2 := &authgate.Template{Resources: map[string]authgate.ResourceDef{"Cert": {Type: "AWS::ACMPCA::Certificate"}}}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	require.Len(t, result.Diff.Modified, 1)
	assert.Contains(t, result.Diff.Modified[0].Changes[0], "Type changed")
}

func TestCompareProperties(t *testing.T) {
	props1 := map[string]any{"a": 1, "b": 2, "c": 3}
	props2 := map[string]any{"a": 1, "b": 20, "d": 4}

	changes := compareProperties("", props1, props2, Options{})
	assert.Equal(t, []string{"b modified", "c removed", "d added"}, changes)

	changes = compareProperties("Integration", map[string]any{"Type": "AWS"}, map[string]any{"Type": "AWS_PROXY"}, Options{})
	assert.Equal(t, []string{"Integration.Type modified"}, changes)
}

func TestCompareIgnoreOrder(t *testing.T) {
	t1 := &authgate.Template{Resources: map[string]authgate.ResourceDef{
		"Fn": {
			Type:       "AWS::Lambda::Function",
			Properties: map[string]any{"Architectures": []any{"arm64", "x86_64"}},
			DependsOn:  []string{"A", "B"},
		},
	}}
	t2 := &authgate.Template{Resources: map[string]authgate.ResourceDef{
		"Fn": {
			Type:       "AWS::Lambda::Function",
			Properties: map[string]any{"Architectures": []any{"x86_64", "arm64"}},
			DependsOn:  []string{"B", "A"},
		},
	}}

	ordered, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	require.Len(t, ordered.Diff.Modified, 1)
	assert.Equal(t, []string{"Architectures modified", "DependsOn changed"}, ordered.Diff.Modified[0].Changes)

	unordered, err := Compare(t1, t2, Options{IgnoreOrder: true})
	require.NoError(t, err)
	assert.True(t, unordered.Empty())
}

func TestCompareOutputsAndParameters(t *testing.T) {
	t1 := &authgate.Template{
		Parameters: map[string]authgate.Parameter{"Bucket": {Type: "String"}},
		Resources:  map[string]authgate.ResourceDef{},
		Outputs: map[string]authgate.Output{
			"Endpoint": {Value: "a"},
			"Target":   {Value: "t"},
		},
	}
	t2 := &authgate.Template{
		Parameters: map[string]authgate.Parameter{"Bucket": {Type: "String", Description: "artifacts"}, "Key": {Type: "String"}},
		Resources:  map[string]authgate.ResourceDef{},
		Outputs: map[string]authgate.Output{
			"Endpoint": {Value: "b"},
			"Domain":   {Value: "d"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Domain added", "Endpoint modified", "Target removed"}, result.Diff.Outputs)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, "Parameters", result.Diff.Modified[0].Resource)
	assert.Equal(t, []string{"Bucket modified", "Key added"}, result.Diff.Modified[0].Changes)
	assert.Equal(t, 3, result.Summary.Outputs)
	assert.Equal(t, 4, result.Summary.Total)
}

func TestCompare_Topologies(t *testing.T) {
	base := config.Deployment{
		DomainName:     "api.example.com",
		HostedZoneID:   "Z0123456789",
		CertificateARN: "arn:aws:acm:us-east-1:111122223333:certificate/abc",
		Region:         "us-east-1",
		Account:        "111122223333",
		Stage:          "prod",
		ResultTTL:      300 * time.Second,
	}
	route53 := base
	route53.Topology = config.TopologyRoute53
	external := base
	external.Topology = config.TopologyExternalDNS

	t1, err := stack.Synthesize(route53)
	require.NoError(t, err)
	t2, err := stack.Synthesize(external)
	require.NoError(t, err)

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)

	var removed []string
	for _, e := range result.Diff.Removed {
		removed = append(removed, e.Resource)
	}
	assert.Equal(t, []string{stack.APIAliasRecord, stack.APICertificate}, removed)
	assert.Empty(t, result.Diff.Added)
	assert.Contains(t, result.Diff.Outputs, stack.OutputDomainTarget+" modified")
}

func TestCompareFiles(t *testing.T) {
	tmpl, err := stack.Synthesize(config.Deployment{
		DomainName:     "api.example.com",
		CertificateARN: "arn:aws:acm:us-east-1:111122223333:certificate/abc",
		Region:         "us-east-1",
		Account:        "111122223333",
		Topology:       config.TopologyExternalDNS,
		Stage:          "prod",
		ResultTTL:      300 * time.Second,
	})
	require.NoError(t, err)

	dir := t.TempDir()
	jsonData, err := template.ToJSON(tmpl)
	require.NoError(t, err)
	yamlData, err := template.ToYAML(tmpl)
	require.NoError(t, err)

	jsonPath := filepath.Join(dir, "template.json")
	yamlPath := filepath.Join(dir, "template.yaml")
	require.NoError(t, os.WriteFile(jsonPath, jsonData, 0o644))
	require.NoError(t, os.WriteFile(yamlPath, yamlData, 0o644))

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	require.NoError(t, err)
	assert.True(t, result.Empty(), "JSON and YAML renderings are equivalent: %+v", result.Diff)
}

func TestLoadTemplate_Errors(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Resources: [unterminated"), 0o644))
	_, err = LoadTemplate(path)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("Description: nothing\n"), 0o644))
	_, err = LoadTemplate(empty)
	assert.Error(t, err)
}

func TestEqualStringSlices(t *testing.T) {
	tests := []struct {
		name        string
		a, b        []string
		ignoreOrder bool
		want        bool
	}{
		{"both nil", nil, nil, false, true},
		{"equal", []string{"a", "b"}, []string{"a", "b"}, false, true},
		{"different length", []string{"a"}, []string{"a", "b"}, false, false},
		{"reordered", []string{"a", "b"}, []string{"b", "a"}, false, false},
		{"reordered ignoring order", []string{"a", "b"}, []string{"b", "a"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, equalStringSlices(tt.a, tt.b, tt.ignoreOrder))
		})
	}
}
