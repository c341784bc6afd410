package main

import (
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
)

type escalateArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
}

var escalateArgs escalateArguments

var escalateCmd = &cobra.Command{
	Use:   "escalate",
	Short: "Escalate a challenged instance to the dispute oracle",
	Long:  ``,
	Run:   escalateRun,
}

func init() {
	urlFlag(escalateCmd, &escalateArgs.Url)
	serviceIdFlag(escalateCmd, &escalateArgs.ServiceId)
	keyFlag(escalateCmd, &escalateArgs.Skey)
	escalateCmd.Flags().Uint64VarP(&escalateArgs.Instance, "instance", "i", 0, "instance id")
}

func escalateRun(cmd *cobra.Command, args []string) {
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeEscalate,
		Instance: escalateArgs.Instance,
		Tx:       &op.EscalateOp{},
	}
	signAndSendOp(escalateArgs.Url, escalateArgs.ServiceId, escalateArgs.Skey, o)
}
