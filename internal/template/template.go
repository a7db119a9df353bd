// Package template builds CloudFormation templates from typed resources.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	authgate "github.com/lex00/authgate-aws-go"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

var logicalNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Builder collects parameters, resources and outputs under logical names and
// assembles them into a template.
type Builder struct {
	description string
	parameters  map[string]authgate.Parameter
	resources   map[string]entry
	outputs     map[string]authgate.Output
	errs        *multierror.Error
}

type entry struct {
	value     authgate.Resource
	dependsOn []string
}

// NewBuilder creates an empty builder. description becomes the template Description.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		parameters:  make(map[string]authgate.Parameter),
		resources:   make(map[string]entry),
		outputs:     make(map[string]authgate.Output),
	}
}

// AddParameter declares a template parameter.
func (b *Builder) AddParameter(name string, p authgate.Parameter) {
	if !b.claim(name) {
		return
	}
	b.parameters[name] = p
}

// AddResource declares a resource. dependsOn lists explicit DependsOn entries;
// references made through Ref, Fn::GetAtt and Fn::Sub are discovered by Build.
func (b *Builder) AddResource(name string, r authgate.Resource, dependsOn ...string) {
	if !b.claim(name) {
		return
	}
	if r == nil {
		b.errs = multierror.Append(b.errs, fmt.Errorf("resource %s: nil value", name))
		return
	}
	b.resources[name] = entry{value: r, dependsOn: dependsOn}
}

// AddOutput declares a template output.
func (b *Builder) AddOutput(name string, o authgate.Output) {
	if !logicalNamePattern.MatchString(name) {
		b.errs = multierror.Append(b.errs, fmt.Errorf("invalid logical name %q", name))
		return
	}
	if _, exists := b.outputs[name]; exists {
		b.errs = multierror.Append(b.errs, fmt.Errorf("duplicate output %q", name))
		return
	}
	b.outputs[name] = o
}

// claim reserves a logical name shared by parameters and resources.
func (b *Builder) claim(name string) bool {
	if !logicalNamePattern.MatchString(name) {
		b.errs = multierror.Append(b.errs, fmt.Errorf("invalid logical name %q", name))
		return false
	}
	_, isParam := b.parameters[name]
	_, isResource := b.resources[name]
	if isParam || isResource {
		b.errs = multierror.Append(b.errs, fmt.Errorf("duplicate logical name %q", name))
		return false
	}
	return true
}

// Build constructs the CloudFormation template.
// It fails if any declaration was invalid, if a reference points at an
// undeclared name, or if resources depend on each other in a cycle.
func (b *Builder) Build() (*authgate.Template, error) {
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	tmpl := &authgate.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]authgate.ResourceDef, len(b.resources)),
	}

	if len(b.parameters) > 0 {
		tmpl.Parameters = make(map[string]authgate.Parameter, len(b.parameters))
		for name, p := range b.parameters {
			tmpl.Parameters[name] = p
		}
	}

	for name, e := range b.resources {
		props, err := properties(e.value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		var dependsOn []string
		if len(e.dependsOn) > 0 {
			dependsOn = append(dependsOn, e.dependsOn...)
			sort.Strings(dependsOn)
		}

		tmpl.Resources[name] = authgate.ResourceDef{
			Type:       e.value.ResourceType(),
			Properties: props,
			DependsOn:  dependsOn,
		}
	}

	if len(b.outputs) > 0 {
		tmpl.Outputs = make(map[string]authgate.Output, len(b.outputs))
		for name, o := range b.outputs {
			out, err := normalizeOutput(o)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			tmpl.Outputs[name] = out
		}
	}

	if _, err := Order(tmpl); err != nil {
		return nil, err
	}
	if err := checkOutputs(tmpl); err != nil {
		return nil, err
	}

	return tmpl, nil
}

// properties converts a typed resource into its CloudFormation property map.
// JSON struct tags decide names and which zero values are omitted.
func properties(r authgate.Resource) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, nil
	}
	return props, nil
}

// normalize turns intrinsic values into plain maps and slices so that JSON and
// YAML renderings agree.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeOutput(o authgate.Output) (authgate.Output, error) {
	value, err := normalize(o.Value)
	if err != nil {
		return o, err
	}
	o.Value = value

	if o.Export != nil {
		name, err := normalize(o.Export.Name)
		if err != nil {
			return o, err
		}
		o.Export = &authgate.OutputExport{Name: name}
	}
	return o, nil
}

func checkOutputs(t *authgate.Template) error {
	var errs *multierror.Error

	names := make([]string, 0, len(t.Outputs))
	for name := range t.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		out := t.Outputs[name]
		var refs []Reference
		collect(out.Value, &refs)
		if out.Export != nil {
			collect(out.Export.Name, &refs)
		}
		for _, ref := range refs {
			if !declared(t, ref.Target) {
				errs = multierror.Append(errs, fmt.Errorf("output %s: undefined reference %q", name, ref.Target))
			}
		}
	}
	return errs.ErrorOrNil()
}

// ToJSON serializes the template to JSON.
func ToJSON(t *authgate.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *authgate.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Render serializes the template in the named format ("json" or "yaml").
func Render(t *authgate.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return ToJSON(t)
	case "yaml", "yml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
