package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cfgtrust/cfgtrust/internal/installer"
	"github.com/cfgtrust/cfgtrust/internal/observability/logging"
	"github.com/cfgtrust/cfgtrust/internal/observability/receipt"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install a runtime config at a secure location",
	Long: `Writes a runtime config with an atomic, fail-closed installer:
content lands in a 0600 temp file and is renamed into place, so a failed
install never leaves a partial or readable file behind.

Without --path the best candidate location is chosen automatically.
An existing valid config is kept (drift against the requested payload is
reported); use --force to replace it.

Examples:
  # Install the default skeleton at the best location
  cfgtrust init

  # Install a prepared payload at an explicit path
  cfgtrust init --from ./payload.json --path /etc/cfgtrust/runtime.json

  # Replace whatever is there
  cfgtrust init --force`,
	RunE:         runInit,
	SilenceUsage: true,
}

var (
	initPathFlag   string
	initForceFlag  bool
	initFromFlag   string
	initFormatFlag string
)

func init() {
	initCmd.Flags().StringVar(&initPathFlag, "path", "", "Target path (default: best scored candidate)")
	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "Replace an existing config")
	initCmd.Flags().StringVar(&initFromFlag, "from", "", "JSON file with the payload to install")
	initCmd.Flags().StringVar(&initFormatFlag, "format", "text", "Output format: text or json")
}

// GetInitCmd export
func GetInitCmd() *cobra.Command {
	return initCmd
}

func runInit(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "cfgtrust init", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	ctx, finish := startSpan(ctx, "init",
		attribute.String("cfgtrust.target", initPathFlag),
		attribute.Bool("cfgtrust.force", initForceFlag))
	defer func() { finish(err) }()

	log := logging.From(ctx)
	start := time.Now()
	log.Event(ctx, "init.start", map[string]any{"target": initPathFlag, "force": initForceFlag})

	if err = checkFormat(initFormatFlag); err != nil {
		return err
	}

	payload, err := initPayload()
	if err != nil {
		return err
	}

	var res installer.InstallResult
	if initPathFlag != "" {
		res, err = installer.Init(payload, initPathFlag, initForceFlag)
	} else {
		res, err = installer.InitRecommended(payload, initForceFlag)
	}
	if err != nil {
		log.Event(ctx, "init.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      "fail",
		})
		return err
	}

	receiptOpts = append(receiptOpts,
		receipt.WithConfigRef(res.Path),
		receipt.WithInstall(receipt.InstallSummary{
			Path:         res.Path,
			Reused:       res.Reused,
			Forced:       initForceFlag,
			DriftItems:   len(res.Drift),
			BytesWritten: res.BytesWritten,
		}))

	log.Event(ctx, "init.complete", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"result":      "success",
		"path":        res.Path,
		"reused":      res.Reused,
	})

	if initFormatFlag == "json" {
		return printJSON(res)
	}

	if res.Reused {
		fmt.Printf("Kept existing config at %s\n", res.Path)
		for _, d := range res.Drift {
			fmt.Printf("  drift: %s\n", d)
		}
		if len(res.Drift) > 0 {
			fmt.Println("  (use --force to replace)")
		}
	} else {
		fmt.Printf("Installed config at %s (%d bytes, mode 0600)\n", res.Path, res.BytesWritten)
	}
	return nil
}

// initPayload builds the config content: an explicit --from file, or a
// minimal skeleton that passes validation.
func initPayload() (map[string]any, error) {
	if initFromFlag == "" {
		return map[string]any{
			"http": map[string]any{
				"allowed_hosts":   []any{},
				"trusted_proxies": []any{},
			},
			"observability": map[string]any{
				"log": map[string]any{"level": "info", "format": "jsonl"},
			},
		}, nil
	}

	if err := secpath.ScreenPath(initFromFlag); err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	data, err := os.ReadFile(initFromFlag)
	if err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("--from: payload must be a JSON object: %w", err)
	}
	return payload, nil
}
