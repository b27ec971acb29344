package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/models"
	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Engine evaluates posture rules written in CEL against a decoded
// configuration tree. Rules see the whole tree as the variable "cfg".
type Engine struct {
	env *cel.Env
}

func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("cfg", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("facts", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// Evaluate checks rules
func (e *Engine) Evaluate(rs *models.RuleSet, cfg map[string]any, facts Facts) ([]models.RuleResult, error) {
	results := make([]models.RuleResult, 0, len(rs.Rules))

	factsMap := facts.ToMap()
	for _, rule := range rs.Rules {
		result, err := e.evaluateRule(rule, cfg, factsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate rule %q: %w", rule.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// evaluateRule
func (e *Engine) evaluateRule(rule models.Rule, cfg, facts map[string]any) (models.RuleResult, error) {
	failed := func(msg string) models.RuleResult {
		return models.RuleResult{
			RuleName: rule.Name,
			Passed:   false,
			Severity: ruleSeverity(rule),
			Message:  msg,
		}
	}

	// compile
	ast, issues := e.env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		return failed(fmt.Sprintf("CEL compile error: %v", issues.Err())), nil
	}

	// program
	prg, err := e.env.Program(ast)
	if err != nil {
		return failed(fmt.Sprintf("CEL program error: %v", err)), nil
	}

	// eval
	out, _, err := prg.Eval(map[string]any{
		"cfg":   cfg,
		"facts": facts,
	})
	if err != nil {
		return failed(fmt.Sprintf("CEL evaluation error: %v", err)), nil
	}

	// check bool
	passed, ok := out.Value().(bool)
	if !ok {
		return failed(fmt.Sprintf("Rule expression must return boolean, got %T", out.Value())), nil
	}

	result := models.RuleResult{
		RuleName: rule.Name,
		Passed:   passed,
		Severity: ruleSeverity(rule),
	}
	if !passed {
		result.Message = rule.Message
	}

	return result, nil
}

func ruleSeverity(rule models.Rule) models.Severity {
	switch rule.Severity {
	case "error":
		return models.SeverityError
	case "info":
		return models.SeverityInfo
	default:
		return models.SeverityWarn
	}
}

// CompileAndValidate
func (e *Engine) CompileAndValidate(rs *models.RuleSet) error {
	var errors []string

	for _, rule := range rs.Rules {
		_, issues := e.env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			errors = append(errors, fmt.Sprintf("rule %q: %v", rule.Name, issues.Err()))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("rule set validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}

// LoadRuleSetFile reads a user-supplied rule set from a YAML file and
// checks that every expression compiles.
func LoadRuleSetFile(path string) (*models.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	var rs models.RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}

	engine, err := NewEngine()
	if err != nil {
		return nil, err
	}
	if err := engine.CompileAndValidate(&rs); err != nil {
		return nil, err
	}
	return &rs, nil
}
