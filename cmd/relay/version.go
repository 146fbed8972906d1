package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "relay %s\n", Version)
		fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
		fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
