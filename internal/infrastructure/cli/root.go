package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configPath string
	logLevel   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "spectree",
	Version: Version,
	Short:   "Turn feature requests into epics, features and tasks",
	Long: `Spectree asks an AI model to break a natural-language feature request into
an epic with ordered features and tasks, then creates them in your issue tracker.

Use --dry-run to preview a plan without touching the tracker.`,
	SilenceUsage: true,
}

// Execute runs the root command and prints a hint for mapped errors.
func Execute() error {
	err := RootCmd.Execute()
	printHint(RootCmd.ErrOrStderr(), err)
	return err
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return 1
}

func printHint(w io.Writer, err error) {
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintln(w, hintStyle.Render("Hint: "+cliErr.Hint))
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./spectree.yaml or $XDG_CONFIG_HOME/spectree/spectree.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}
