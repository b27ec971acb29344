package doctor

import (
	"fmt"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/models"
)

// HardeningProbe reports how the hosting runtime is hardened. The doctor
// has no portable way to read another interpreter's settings, so callers
// inject whatever view they have of the platform.
type HardeningProbe interface {
	// DangerousFlags lists enabled runtime flags that weaken isolation
	// (remote code inclusion, dynamic eval, debug endpoints).
	DangerousFlags() []string
	// DisabledFunctions lists runtime functions the platform has disabled.
	DisabledFunctions() []string
	// PathJail returns the configured filesystem jail root, or "" if none.
	PathJail() string
}

func (i *inspector) auditHardening(report *models.Report) {
	if i.probe == nil {
		return
	}

	for _, flag := range i.probe.DangerousFlags() {
		report.Add(models.Finding{
			Severity: models.SeverityWarn,
			Code:     "hardening.flag",
			Message:  fmt.Sprintf("dangerous runtime flag enabled: %s", flag),
			Meta:     map[string]string{"flag": flag},
		})
	}

	if disabled := i.probe.DisabledFunctions(); len(disabled) == 0 {
		report.Add(models.Finding{
			Severity: models.SeverityInfo,
			Code:     "hardening.functions",
			Message:  "no runtime functions are disabled; consider a deny list for process spawning",
		})
	} else {
		report.Add(models.Finding{
			Severity: models.SeverityInfo,
			Code:     "hardening.functions",
			Message:  fmt.Sprintf("%d runtime functions disabled: %s", len(disabled), strings.Join(disabled, ", ")),
		})
	}

	if i.probe.PathJail() == "" {
		report.Add(models.Finding{
			Severity: models.SeverityInfo,
			Code:     "hardening.jail",
			Message:  "no filesystem jail is configured for the runtime",
		})
	}
}
