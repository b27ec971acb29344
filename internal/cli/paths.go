package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/cfgtrust/cfgtrust/internal/bootstrap"
	"github.com/cfgtrust/cfgtrust/internal/installer"
	"github.com/cfgtrust/cfgtrust/internal/observability/logging"
	"github.com/cfgtrust/cfgtrust/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show config discovery candidates and the recommended write path",
	Long: `Lists every candidate location in discovery order, what a scan
finds there today, and where 'cfgtrust init' would write.

Examples:
  cfgtrust paths
  cfgtrust paths --format json`,
	RunE:         runPaths,
	SilenceUsage: true,
}

var pathsFormatFlag string

func init() {
	pathsCmd.Flags().StringVar(&pathsFormatFlag, "format", "text", "Output format: text or json")
}

// GetPathsCmd export
func GetPathsCmd() *cobra.Command {
	return pathsCmd
}

type pathsReport struct {
	Scan           bootstrap.ScanResult     `json:"scan"`
	Recommendation installer.Recommendation `json:"recommendation"`
}

func runPaths(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	sess := receipt.Start(ctx, "cfgtrust paths", os.Args[1:])
	var receiptOpts []receipt.Option
	defer func() {
		_ = sess.Finish(err, receiptOpts...)
	}()

	ctx, finish := startSpan(ctx, "paths")
	defer func() { finish(err) }()

	log := logging.From(ctx)
	start := time.Now()
	log.Event(ctx, "paths.start", nil)

	if err = checkFormat(pathsFormatFlag); err != nil {
		return err
	}

	candidates := bootstrap.DefaultCandidatePaths()
	scan := bootstrap.Scan(candidates)
	rec := installer.RecommendWritePath(candidates)

	receiptOpts = append(receiptOpts,
		receipt.WithScan(scan.SelectedPath, len(scan.Tried), len(scan.Rejected)))

	log.Event(ctx, "paths.complete", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"selected":    scan.SelectedPath,
	})

	if pathsFormatFlag == "json" {
		return printJSON(pathsReport{Scan: scan, Recommendation: rec})
	}

	fmt.Println("Discovery order:")
	for _, path := range candidates {
		switch {
		case path == scan.SelectedPath:
			fmt.Printf("  * %s  (active)\n", path)
		case scan.Rejected[path] != "":
			fmt.Printf("  ! %s  (rejected: %s)\n", path, scan.Rejected[path])
		default:
			fmt.Printf("    %s\n", path)
		}
	}

	fmt.Println("\nWrite candidates:")
	for _, cand := range rec.Candidates {
		if cand.Status == installer.StatusRejected {
			fmt.Printf("  ! %-45s %s\n", cand.Path, cand.Reason)
			continue
		}
		fmt.Printf("    %-45s score %3d  %s\n", cand.Path, cand.Score, cand.Reason)
	}
	if rec.Best != nil {
		fmt.Printf("\nRecommended: %s\n", rec.Best.Path)
	} else {
		fmt.Println("\nRecommended: none (no usable location)")
	}
	return nil
}
