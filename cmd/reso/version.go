package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version and gitCommit are overridden at build time via -ldflags.
var (
	version   = "0.1.0"
	gitCommit = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reso build version",
	Run: func(cmd *cobra.Command, args []string) {
		v := version
		if len(gitCommit) >= 8 {
			v += "+" + gitCommit[:8]
		}
		fmt.Printf("reso %s %s\n", v, runtime.Version())
	},
}
