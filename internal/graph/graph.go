// Package graph renders the reference graph of a template in DOT or Mermaid format.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from templates.
type Generator struct {
	// IncludeParameters includes parameter nodes and their edges.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates the graph of t and writes it to w.
// Edges point from a resource to what it references: GetAtt edges are blue,
// explicit DependsOn edges are dashed.
func (g *Generator) Generate(t *authgate.Template, w io.Writer) error {
	graph := g.buildGraph(t)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(t *authgate.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(t *authgate.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(t.Resources)
	nodes := make(map[string]dot.Node, len(names))

	if g.ClusterByType {
		g.addClusteredNodes(graph, t, names, nodes)
	} else {
		for _, name := range names {
			nodes[name] = resourceNode(graph, name, t.Resources[name].Type)
		}
	}

	if g.IncludeParameters {
		for _, name := range sortedNames(t.Parameters) {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
			nodes[name] = n
		}
	}

	refs := template.References(t)
	for _, name := range names {
		for _, ref := range refs[name] {
			to, ok := nodes[ref.Target]
			if !ok {
				continue
			}
			e := graph.Edge(nodes[name], to)
			switch {
			case ref.Explicit:
				e.Attr("style", "dashed")
			case ref.Attribute != "":
				e.Attr("color", "blue")
				e.Label(ref.Attribute)
			}
		}
	}

	return graph
}

// addClusteredNodes adds resource nodes grouped by AWS service. Services with
// a single resource are not wrapped in a cluster.
func (g *Generator) addClusteredNodes(graph *dot.Graph, t *authgate.Template, names []string, nodes map[string]dot.Node) {
	byService := make(map[string][]string)
	for _, name := range names {
		service := extractService(t.Resources[name].Type)
		byService[service] = append(byService[service], name)
	}

	for _, service := range sortedNames(byService) {
		members := byService[service]
		if len(members) == 1 {
			nodes[members[0]] = resourceNode(graph, members[0], t.Resources[members[0]].Type)
			continue
		}

		cluster := graph.Subgraph(service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range members {
			nodes[name] = resourceNode(cluster, name, t.Resources[name].Type)
		}
	}
}

func resourceNode(graph *dot.Graph, name, cfnType string) dot.Node {
	n := graph.Node(name)
	n.Label(name + "\\n[" + cfnType + "]")
	return n
}

// extractService returns the service segment of a CloudFormation type.
// e.g., "AWS::ApiGateway::Method" -> "ApiGateway"
func extractService(cfnType string) string {
	parts := strings.Split(cfnType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
