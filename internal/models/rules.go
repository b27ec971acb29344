package models

// RuleSet from yaml
type RuleSet struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Rule cel heuristic
type Rule struct {
	Name     string `yaml:"name"`
	Expr     string `yaml:"expr"`
	Severity string `yaml:"severity"`
	Message  string `yaml:"message"`
}

// RuleResult eval result
type RuleResult struct {
	RuleName string
	Passed   bool
	Severity Severity
	Message  string
}
