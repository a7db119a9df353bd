package template

import (
	"regexp"
	"sort"
	"strings"

	authgate "github.com/lex00/authgate-aws-go"
)

// Reference is an edge from a resource to a parameter or another resource.
type Reference struct {
	// Target is the referenced logical name.
	Target string
	// Attribute is set for Fn::GetAtt and attribute-style Fn::Sub variables.
	Attribute string
	// Explicit marks a DependsOn entry rather than a property reference.
	Explicit bool
}

var subVariable = regexp.MustCompile(`\$\{([^}!][^}]*)\}`)

// References returns the outgoing references of every resource in t, sorted
// and de-duplicated. Pseudo-parameters (AWS::*) are not included.
func References(t *authgate.Template) map[string][]Reference {
	result := make(map[string][]Reference, len(t.Resources))

	for name, def := range t.Resources {
		var refs []Reference
		collect(def.Properties, &refs)
		for _, dep := range def.DependsOn {
			refs = append(refs, Reference{Target: dep, Explicit: true})
		}
		result[name] = dedupe(refs)
	}

	return result
}

// collect walks a normalized property value and appends every reference found.
func collect(value any, refs *[]Reference) {
	switch v := value.(type) {
	case map[string]any:
		if target, ok := v["Ref"].(string); ok && len(v) == 1 {
			addRef(refs, Reference{Target: target})
			return
		}
		if args, ok := v["Fn::GetAtt"]; ok && len(v) == 1 {
			addRef(refs, getAttReference(args))
			return
		}
		if args, ok := v["Fn::Sub"]; ok && len(v) == 1 {
			collectSub(args, refs)
			return
		}
		for _, val := range v {
			collect(val, refs)
		}

	case []any:
		for _, elem := range v {
			collect(elem, refs)
		}
	}
}

func getAttReference(args any) Reference {
	switch a := args.(type) {
	case []any:
		if len(a) == 2 {
			name, _ := a[0].(string)
			attr, _ := a[1].(string)
			return Reference{Target: name, Attribute: attr}
		}
	case string:
		name, attr, _ := strings.Cut(a, ".")
		return Reference{Target: name, Attribute: attr}
	}
	return Reference{}
}

// collectSub handles both Fn::Sub forms: a bare string, or [string, variables].
// Names bound in the variable map are local to the expression.
func collectSub(args any, refs *[]Reference) {
	var (
		text  string
		local map[string]any
	)

	switch a := args.(type) {
	case string:
		text = a
	case []any:
		if len(a) > 0 {
			text, _ = a[0].(string)
		}
		if len(a) > 1 {
			local, _ = a[1].(map[string]any)
			for _, val := range local {
				collect(val, refs)
			}
		}
	}

	for _, match := range subVariable.FindAllStringSubmatch(text, -1) {
		name, attr, _ := strings.Cut(match[1], ".")
		if _, ok := local[name]; ok {
			continue
		}
		addRef(refs, Reference{Target: name, Attribute: attr})
	}
}

func addRef(refs *[]Reference, ref Reference) {
	if ref.Target == "" || strings.HasPrefix(ref.Target, "AWS::") {
		return
	}
	*refs = append(*refs, ref)
}

func dedupe(refs []Reference) []Reference {
	if len(refs) == 0 {
		return nil
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Target != refs[j].Target {
			return refs[i].Target < refs[j].Target
		}
		if refs[i].Attribute != refs[j].Attribute {
			return refs[i].Attribute < refs[j].Attribute
		}
		return !refs[i].Explicit && refs[j].Explicit
	})

	out := refs[:1]
	for _, ref := range refs[1:] {
		if ref != out[len(out)-1] {
			out = append(out, ref)
		}
	}
	return out
}

// declared reports whether name is a parameter or resource of t.
func declared(t *authgate.Template, name string) bool {
	if _, ok := t.Resources[name]; ok {
		return true
	}
	_, ok := t.Parameters[name]
	return ok
}
