package cli

import (
	"fmt"
	"runtime"

	"github.com/cfgtrust/cfgtrust/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cfgtrust version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("cfgtrust %s (%s)\n", version.BuildVersion(), runtime.Version())
	},
}

// GetVersionCmd export
func GetVersionCmd() *cobra.Command {
	return versionCmd
}
