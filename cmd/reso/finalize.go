package main

import (
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
)

type finalizeArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
	Accept    bool
}

var finalizeArgs finalizeArguments

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Finalize an instance after its challenge period",
	Long: `Finalize an unchallenged instance once its challenge period has
elapsed, or settle a challenged one by accepting or rejecting the
challenge.`,
	Run: finalizeRun,
}

func init() {
	urlFlag(finalizeCmd, &finalizeArgs.Url)
	serviceIdFlag(finalizeCmd, &finalizeArgs.ServiceId)
	keyFlag(finalizeCmd, &finalizeArgs.Skey)
	finalizeCmd.Flags().Uint64VarP(&finalizeArgs.Instance, "instance", "i", 0, "instance id")
	finalizeCmd.Flags().BoolVarP(&finalizeArgs.Accept, "accept", "a", false, "accept the pending challenge")
}

func finalizeRun(cmd *cobra.Command, args []string) {
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeFinalize,
		Instance: finalizeArgs.Instance,
		Tx: &op.FinalizeOp{
			AcceptChallenge: finalizeArgs.Accept,
		},
	}
	signAndSendOp(finalizeArgs.Url, finalizeArgs.ServiceId, finalizeArgs.Skey, o)
}
