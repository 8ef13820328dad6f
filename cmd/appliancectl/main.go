// Command appliancectl starts, stops and switches the network mode of a
// local development-cloud appliance.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/onkernel/appliancectl/lib/switcher"
	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

var assumeYes bool

var rootCmd = &cobra.Command{
	Use:     "appliancectl",
	Short:   "Control a local development-cloud appliance",
	Long:    "appliancectl starts and stops a local development-cloud appliance and switches it\nbetween online and offline network modes.",
	Version: version,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
	rootCmd.AddCommand(startCmd, stopCmd, offlineCmd, onlineCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when the operator declined a step, 1 for any other failure.
func exitCode(err error) int {
	if errors.Is(err, switcher.ErrAborted) {
		return 2
	}
	return 1
}
