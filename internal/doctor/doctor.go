// Package doctor inspects a loaded configuration and grades its security
// posture. Unlike the validator it never fails: every problem becomes a
// finding in the report, so operators see the whole picture at once.
package doctor

import (
	"fmt"
	"time"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/models"
	"github.com/cfgtrust/cfgtrust/internal/policy"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
	"github.com/cfgtrust/cfgtrust/internal/validator"
)

type Option func(*inspector)

type inspector struct {
	rules    *models.RuleSet
	secOpts  []secpath.Option
	valOpts  []validator.Option
	docRoot  string
	probe    HardeningProbe
	writable func(string) bool
	skipFS   bool
}

// WithRules overrides the baseline rule set.
func WithRules(rs *models.RuleSet) Option {
	return func(i *inspector) { i.rules = rs }
}

// WithSecpathOptions forwards options to every secure-path check.
func WithSecpathOptions(opts ...secpath.Option) Option {
	return func(i *inspector) { i.secOpts = append(i.secOpts, opts...) }
}

// WithDocumentRoot overrides the detected web document root.
func WithDocumentRoot(root string) Option {
	return func(i *inspector) { i.docRoot = root }
}

// WithHardeningProbe enables the runtime hardening phase.
func WithHardeningProbe(p HardeningProbe) Option {
	return func(i *inspector) { i.probe = p }
}

// WithoutFilesystemChecks limits the validator sweep to structural checks.
func WithoutFilesystemChecks() Option {
	return func(i *inspector) { i.skipFS = true }
}

// WithWritableProbe substitutes the directory writability probe used by
// the outbox heuristics.
func WithWritableProbe(fn func(string) bool) Option {
	return func(i *inspector) { i.writable = fn }
}

func newInspector(opts []Option) *inspector {
	i := &inspector{
		rules:   policy.MustGetPreset("baseline"),
		docRoot: config.DetectDocumentRoot(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.valOpts = []validator.Option{validator.WithSecpathOptions(i.secOpts...)}
	if i.skipFS {
		i.valOpts = append(i.valOpts, validator.WithoutFilesystemChecks())
	}
	if i.writable == nil {
		if i.skipFS {
			i.writable = func(string) bool { return true }
		} else {
			i.writable = secpath.Writable
		}
	}
	return i
}

type section struct {
	name  string
	check func(*config.Repository, ...validator.Option) error
}

var sections = []section{
	{"trust", validator.AssertWeb3Config},
	{"http", validator.AssertHTTPConfig},
	{"db", validator.AssertDBConfig},
	{"crypto", validator.AssertCryptoConfig},
	{"observability", validator.AssertObservabilityConfig},
}

// Inspect grades the posture of a loaded configuration. A nil repo is
// itself a finding, not a failure.
func Inspect(repo *config.Repository, opts ...Option) models.Report {
	i := newInspector(opts)
	report := models.Report{Timestamp: time.Now().UTC(), Findings: []models.Finding{}}

	if repo == nil {
		report.Add(models.Finding{
			Severity: models.SeverityError,
			Code:     "config.missing",
			Message:  "no configuration loaded; all runtime trust checks are inactive",
		})
		report.Grade()
		return report
	}
	report.Source = repo.SourcePath()

	i.sweepSections(repo, &report)
	i.applyRules(repo, &report)
	i.inspectOutbox(repo, &report)
	i.inspectPathLocations(repo, &report)
	i.auditHardening(&report)

	report.Grade()
	// Strong and medium are claims about an enforced posture. Without a
	// trust-kernel section there is nothing enforcing anything, so the
	// tier stays at compat no matter how clean the findings are.
	if !repo.Has("trust") {
		report.Tier = models.TierCompat
	}
	return report
}

// inspectOutbox applies the transaction-outbox heuristics: under an
// active trust kernel the outbox directory should exist and be writable.
func (i *inspector) inspectOutbox(repo *config.Repository, report *models.Report) {
	if !repo.Has("trust") {
		return
	}
	raw, ok := repo.Get("trust.web3.tx_outbox_dir", nil).(string)
	if !ok || raw == "" {
		report.Add(models.Finding{
			Severity: models.SeverityWarn,
			Code:     "outbox.absent",
			Message:  "no tx_outbox_dir is configured; on-chain writes are fire-and-forget",
		})
		return
	}
	path := raw
	if resolved, err := repo.ResolvePath(raw); err == nil {
		path = resolved
	}
	if !i.writable(path) {
		report.Add(models.Finding{
			Severity: models.SeverityWarn,
			Code:     "outbox.unwritable",
			Message:  fmt.Sprintf("tx_outbox_dir %s is not writable; queued transactions cannot be persisted", path),
			Meta:     map[string]string{"path": path},
		})
		return
	}
	report.Add(models.Finding{
		Severity: models.SeverityInfo,
		Code:     "outbox.healthy",
		Message:  fmt.Sprintf("tx_outbox_dir %s is present and writable", path),
		Meta:     map[string]string{"path": path},
	})
}

// sweepSections runs every section validator, demoting hard failures to
// error findings and absent sections to informational ones.
func (i *inspector) sweepSections(repo *config.Repository, report *models.Report) {
	for _, s := range sections {
		if !repo.Has(s.name) {
			report.Add(models.Finding{
				Severity: models.SeverityInfo,
				Code:     s.name + ".absent",
				Message:  fmt.Sprintf("section %s is not configured", s.name),
			})
			continue
		}
		if err := s.check(repo, i.valOpts...); err != nil {
			report.Add(models.Finding{
				Severity: models.SeverityError,
				Code:     s.name + ".invalid",
				Message:  err.Error(),
			})
		}
	}
}

func (i *inspector) applyRules(repo *config.Repository, report *models.Report) {
	engine, err := policy.NewEngine()
	if err != nil {
		report.Add(models.Finding{
			Severity: models.SeverityWarn,
			Code:     "rules.engine",
			Message:  fmt.Sprintf("heuristic rules unavailable: %v", err),
		})
		return
	}

	results, err := engine.Evaluate(i.rules, repo.ToMap(), policy.BuildFacts(repo))
	if err != nil {
		report.Add(models.Finding{
			Severity: models.SeverityWarn,
			Code:     "rules.engine",
			Message:  fmt.Sprintf("heuristic rules unavailable: %v", err),
		})
		return
	}
	for _, r := range results {
		if r.Passed {
			continue
		}
		report.Add(models.Finding{
			Severity: r.Severity,
			Code:     "rule." + r.RuleName,
			Message:  r.Message,
			Meta:     map[string]string{"ruleset": i.rules.Name},
		})
	}
}
