// Package validation checks synthesized templates.
//
// Two passes run over a template:
//   - structural rules (AG001..AG006) that encode how the authorizer, the
//     protected method and the Lambda permissions must be wired together
//   - cfn-lint-go over the rendered template (library dependency)
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	authgate "github.com/lex00/authgate-aws-go"
	"github.com/lex00/authgate-aws-go/internal/template"
)

// Level is the severity of an Issue.
type Level string

const (
	LevelError         Level = "Error"
	LevelWarning       Level = "Warning"
	LevelInformational Level = "Informational"
)

// Issue is one finding.
type Issue struct {
	Rule     string `json:"rule"`
	Level    Level  `json:"level"`
	Resource string `json:"resource,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	if i.Resource != "" {
		return fmt.Sprintf("%s: %s (at Resources/%s)", i.Rule, i.Message, i.Resource)
	}
	return fmt.Sprintf("%s: %s", i.Rule, i.Message)
}

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Options selects the passes Validate runs.
type Options struct {
	// SkipCfnLint runs the structural rules only.
	SkipCfnLint bool
}

// Validate runs the structural rules and, unless skipped, cfn-lint over t.
// Warnings do not fail validation.
func Validate(t *authgate.Template, opts Options) (authgate.ValidateResult, error) {
	result := authgate.ValidateResult{Resources: len(t.Resources)}

	for _, issue := range CheckStructure(t) {
		switch issue.Level {
		case LevelError:
			result.Errors = append(result.Errors, issue.String())
		default:
			result.Warnings = append(result.Warnings, issue.String())
		}
	}

	if !opts.SkipCfnLint {
		lintResult, err := LintTemplate(t)
		if err != nil {
			return result, err
		}
		result.Errors = append(result.Errors, lintResult.Errors...)
		result.Warnings = append(result.Warnings, lintResult.Warnings...)
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

// LintTemplate renders t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *authgate.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	dir, err := os.MkdirTemp("", "authgate-lint-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	result.Passed = len(result.Errors) == 0
	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Rule != issues[j].Rule {
			return issues[i].Rule < issues[j].Rule
		}
		return issues[i].Resource < issues[j].Resource
	})
}
