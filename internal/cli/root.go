package cli

import (
	"fmt"
	"os"

	"github.com/cfgtrust/cfgtrust/internal/observability"
	"github.com/cfgtrust/cfgtrust/internal/observability/logging"
	otelobs "github.com/cfgtrust/cfgtrust/internal/observability/otel"
	"github.com/cfgtrust/cfgtrust/internal/observability/receipt"
	"github.com/cfgtrust/cfgtrust/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cfgtrust",
	Short: "Fail-closed guardian for runtime configuration",
	Long: `cfgtrust loads, validates and audits the runtime security config.
A config that cannot be proven safe is treated as absent.`,
	Version:           version.BuildVersion(),
	PersistentPreRunE: setupObservability,
	PersistentPostRun: teardownObservability,
}

var (
	logFormatFlag   string
	logLevelFlag    string
	logOutputFlag   string
	otelFlag        bool
	otelEndpoint    string
	otelProtocol    string
	otelInsecure    bool
	receiptFlag     string
	receiptModeFlag string
)

// Closed by PersistentPostRun after the command finishes.
var (
	activeLogger  logging.Logger
	activeOtel    *otelobs.Handle
	activeReceipt receipt.Writer
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logFormatFlag, "log-format", "pretty", "Log format: pretty or jsonl")
	pf.StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, or error")
	pf.StringVar(&logOutputFlag, "log-output", "stderr", "Log destination: stderr or a file path")
	pf.BoolVar(&otelFlag, "otel", false, "Enable OpenTelemetry tracing")
	pf.StringVar(&otelEndpoint, "otel-endpoint", "", "OTLP endpoint (host:port)")
	pf.StringVar(&otelProtocol, "otel-protocol", "grpc", "OTLP protocol: grpc or http")
	pf.BoolVar(&otelInsecure, "otel-insecure", false, "Disable TLS for the OTLP exporter")
	pf.StringVar(&receiptFlag, "receipt", "", "Write an evidence receipt to this path")
	pf.StringVar(&receiptModeFlag, "receipt-mode", "overwrite", "Receipt mode: overwrite or append")

	rootCmd.AddCommand(GetDoctorCmd())
	rootCmd.AddCommand(GetValidateCmd())
	rootCmd.AddCommand(GetInitCmd())
	rootCmd.AddCommand(GetPathsCmd())
	rootCmd.AddCommand(GetVersionCmd())
}

// setupObservability wires op-id, logger, tracing and the receipt writer
// into the command context before any subcommand runs.
func setupObservability(cmd *cobra.Command, _ []string) error {
	ctx := observability.WithOpID(cmd.Context())

	logger, err := logging.NewLogger(logging.Config{
		Format: logFormatFlag,
		Level:  logLevelFlag,
		Output: logOutputFlag,
	})
	if err != nil {
		return fmt.Errorf("cannot open log output: %w", err)
	}
	activeLogger = logger
	ctx = logging.WithLogger(ctx, logger)

	if otelFlag {
		ocfg := otelobs.DefaultConfig()
		ocfg.Enabled = true
		ocfg.Endpoint = otelEndpoint
		ocfg.Insecure = otelInsecure
		switch otelProtocol {
		case "grpc":
			ocfg.Protocol = otelobs.ProtocolGRPC
		case "http":
			ocfg.Protocol = otelobs.ProtocolHTTP
		default:
			return fmt.Errorf("invalid --otel-protocol %q (use grpc or http)", otelProtocol)
		}
		handle, err := otelobs.Init(ctx, ocfg)
		if err != nil {
			return fmt.Errorf("cannot initialize tracing: %w", err)
		}
		activeOtel = handle
		ctx = otelobs.WithHandle(ctx, handle)
	}

	if receiptFlag != "" {
		w, err := receipt.NewWriter(receiptFlag, receiptModeFlag)
		if err != nil {
			return fmt.Errorf("cannot open receipt: %w", err)
		}
		activeReceipt = w
		ctx = receipt.WithWriter(ctx, w)
	}

	cmd.SetContext(ctx)
	return nil
}

func teardownObservability(cmd *cobra.Command, _ []string) {
	if activeReceipt != nil {
		_ = activeReceipt.Close()
		activeReceipt = nil
	}
	if activeOtel != nil {
		_ = activeOtel.Shutdown(cmd.Context())
		activeOtel = nil
	}
	if activeLogger != nil {
		_ = activeLogger.Close()
		activeLogger = nil
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
