package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	authgate "github.com/lex00/authgate-aws-go"
)

// Order returns the resources of t in dependency order: every resource comes
// after the resources it references. Ties are broken alphabetically so the
// result is stable. Undefined references and cycles are errors.
func Order(t *authgate.Template) ([]string, error) {
	refs := References(t)

	var errs *multierror.Error
	for _, name := range sortedKeys(refs) {
		for _, ref := range refs[name] {
			if !declared(t, ref.Target) {
				errs = multierror.Append(errs, fmt.Errorf("%s: undefined reference %q", name, ref.Target))
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	// Build adjacency list over resources only; parameters have no order.
	graph := make(map[string][]string, len(t.Resources))
	inDegree := make(map[string]int, len(t.Resources))
	deps := make(map[string][]string, len(t.Resources))

	for name := range t.Resources {
		inDegree[name] = 0
	}
	for name, rs := range refs {
		seen := make(map[string]bool)
		for _, ref := range rs {
			if _, isResource := t.Resources[ref.Target]; !isResource || seen[ref.Target] {
				continue
			}
			seen[ref.Target] = true
			graph[ref.Target] = append(graph[ref.Target], name)
			deps[name] = append(deps[name], ref.Target)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(t.Resources))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, next := range graph[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(t.Resources) {
		return nil, findCycle(deps)
	}

	return result, nil
}

// findCycle reports one cycle in deps.
func findCycle(deps map[string][]string) error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)

	var cycle []string
	var visit func(node string) bool
	visit = func(node string) bool {
		visited[node] = true
		onPath[node] = true

		for _, dep := range deps[node] {
			if !visited[dep] {
				if visit(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if onPath[dep] {
				cycle = []string{node, dep}
				return true
			}
		}

		onPath[node] = false
		return false
	}

	for _, name := range sortedKeys(deps) {
		if !visited[name] && visit(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " → "))
	}
	return errors.New("circular dependency detected")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
