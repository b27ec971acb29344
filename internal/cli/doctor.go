package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/cfgtrust/cfgtrust/internal/doctor"
	"github.com/cfgtrust/cfgtrust/internal/models"
	"github.com/cfgtrust/cfgtrust/internal/observability/logging"
	"github.com/cfgtrust/cfgtrust/internal/observability/receipt"
	"github.com/cfgtrust/cfgtrust/internal/policy"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Grade the security posture of the runtime config",
	Long: `Inspects the runtime config and reports every weakness at once
instead of stopping at the first one.

The report grades the posture into a tier:
  strong  trust kernel configured, no findings above info
  medium  trust kernel configured, warnings only
  compat  trust kernel unconfigured, or at least one error

Examples:
  # Audit the discovered config with the baseline rules
  cfgtrust doctor

  # Audit an explicit file with the strict preset
  cfgtrust doctor --config /etc/cfgtrust/runtime.json --rules strict

  # Custom rule set, JSON output for CI
  cfgtrust doctor --rules ./rules.yaml --format json`,
	RunE:         runDoctor,
	SilenceUsage: true,
}

var (
	doctorConfigFlag string
	doctorRulesFlag  string
	doctorFormatFlag string
)

func init() {
	doctorCmd.Flags().StringVar(&doctorConfigFlag, "config", "", "Path to the runtime config (default: discovery)")
	doctorCmd.Flags().StringVar(&doctorRulesFlag, "rules", "baseline", "Rule set: baseline, strict, or path to a YAML file")
	doctorCmd.Flags().StringVar(&doctorFormatFlag, "format", "text", "Output format: text or json")
}

// GetDoctorCmd export
func GetDoctorCmd() *cobra.Command {
	return doctorCmd
}

func runDoctor(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "cfgtrust doctor", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	ctx, finish := startSpan(ctx, "doctor",
		attribute.String("cfgtrust.rules", doctorRulesFlag))
	defer func() { finish(err) }()

	log := logging.From(ctx)
	start := time.Now()
	log.Event(ctx, "doctor.start", map[string]any{"rules": doctorRulesFlag})

	if err = checkFormat(doctorFormatFlag); err != nil {
		return err
	}

	rules := policy.GetPreset(doctorRulesFlag)
	if rules == nil {
		rules, err = policy.LoadRuleSetFile(doctorRulesFlag)
		if err != nil {
			return fmt.Errorf("--rules is neither a preset nor a readable rule set: %w", err)
		}
	}

	// The doctor reports a missing config as a finding instead of failing,
	// so a load error here feeds the report rather than aborting.
	repo, src, loadErr := loadRepo(doctorConfigFlag)

	report := doctor.Inspect(repo, doctor.WithRules(rules))
	if loadErr != nil {
		report.Add(models.Finding{
			Severity: models.SeverityError,
			Code:     "config.load",
			Message:  loadErr.Error(),
		})
		report.Grade()
	}

	receiptOpts = append(receiptOpts,
		receipt.WithConfigRef(src),
		receipt.WithDoctor(string(report.Tier),
			report.Summary.Errors, report.Summary.Warnings, report.Summary.Infos,
			ruleHits(report)))

	log.Event(ctx, "doctor.complete", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"tier":        string(report.Tier),
		"errors":      report.Summary.Errors,
		"warnings":    report.Summary.Warnings,
	})

	if doctorFormatFlag == "json" {
		if jerr := printJSON(report); jerr != nil {
			return jerr
		}
		// Exit without returning an error so cobra does not corrupt stdout.
		if !report.OK() {
			teardownObservability(cmd, nil)
			_ = sess.Finish(nil, receiptOpts...)
			os.Exit(1)
		}
		return nil
	}

	printDoctorText(report)
	if !report.OK() {
		return fmt.Errorf("posture tier %s: %d error(s)", report.Tier, report.Summary.Errors)
	}
	return nil
}

func ruleHits(report models.Report) []receipt.RuleHit {
	var hits []receipt.RuleHit
	for _, f := range report.Findings {
		if len(f.Code) > 5 && f.Code[:5] == "rule." {
			hits = append(hits, receipt.RuleHit{Name: f.Code[5:], Severity: string(f.Severity)})
		}
	}
	return hits
}

func printDoctorText(report models.Report) {
	if report.Source != "" {
		fmt.Printf("Config:  %s\n", report.Source)
	}
	fmt.Printf("Posture: %s (%d error, %d warn, %d info)\n\n",
		report.Tier, report.Summary.Errors, report.Summary.Warnings, report.Summary.Infos)

	for _, f := range report.Findings {
		var tag string
		switch f.Severity {
		case models.SeverityError:
			tag = "ERROR"
		case models.SeverityWarn:
			tag = "WARN "
		default:
			tag = "info "
		}
		fmt.Printf("  [%s] %-28s %s\n", tag, f.Code, f.Message)
	}
	if len(report.Findings) == 0 {
		fmt.Println("  no findings")
	}
}
