package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(escalateCmd)
	rootCmd.AddCommand(verdictCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(statusCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
