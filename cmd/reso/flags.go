package main

import "github.com/spf13/cobra"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26680", "resolution service url")
}

func serviceIdFlag(cmd *cobra.Command, serviceId *string) {
	cmd.Flags().StringVarP(serviceId, "service", "c", "reso-local", "service identifier ops are signed for")
}

func keyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVarP(key, "skeyPath", "s", "./config/operator_key", "private key path")
}
