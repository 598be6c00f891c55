package check

import (
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
)

// Checker runs the structural rules over a descriptor and its content tree.
type Checker struct {
	cfg   *config.ChecksConfig
	rules []Rule
}

// DefaultRules returns the full rule set in execution order.
func DefaultRules() []Rule {
	return []Rule{
		&DescriptorPathsRule{},
		&NavTargetRule{},
		&FrontMatterRule{},
		&EmptyDocRule{},
		&LinkResolvesRule{},
	}
}

// NewChecker creates a checker with the default rules, honoring cfg.Disabled.
func NewChecker(cfg *config.ChecksConfig) *Checker {
	if cfg == nil {
		cfg = &config.ChecksConfig{Format: config.CheckFormatText}
	}

	var rules []Rule
	for _, rule := range DefaultRules() {
		if slices.Contains(cfg.Disabled, rule.Name()) {
			slog.Debug("Rule disabled by configuration", logfields.Rule(rule.Name()))
			continue
		}
		rules = append(rules, rule)
	}

	return &Checker{cfg: cfg, rules: rules}
}

// Run applies every enabled rule and aggregates the findings.
func (c *Checker) Run(desc *config.Descriptor, tree *content.Tree) (*Result, error) {
	result := &Result{
		Issues:    []Issue{},
		DocsTotal: len(tree.Documents()),
	}

	for _, rule := range c.rules {
		issues, err := rule.Check(desc, tree)
		if err != nil {
			return nil, err
		}

		for _, issue := range issues {
			if c.cfg.Quiet && issue.Severity != SeverityError {
				continue
			}
			result.Issues = append(result.Issues, issue)
		}
		slog.Debug("Rule finished", logfields.Rule(rule.Name()), logfields.Count(len(issues)))
	}

	slog.Info("Structural check finished",
		slog.Int("docs", result.DocsTotal),
		slog.Int("errors", result.ErrorCount()),
		slog.Int("warnings", result.WarningCount()))
	return result, nil
}
