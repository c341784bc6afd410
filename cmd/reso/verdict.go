package main

import (
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
	"github.com/veridex/reso-app/types"
)

type verdictArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
	Handle    string
	Pass      uint64
	Fail      uint64
	Prevailed uint64
}

var verdictArgs verdictArguments

var verdictCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Deliver a dispute verdict on the oracle's behalf",
	Long: `Deliver a dispute verdict for an escalated instance. The caller
must be the configured relayer or a finalizer. prevailed is 1 for the
reporter and 2 for the challenger.`,
	Run: verdictRun,
}

func init() {
	urlFlag(verdictCmd, &verdictArgs.Url)
	serviceIdFlag(verdictCmd, &verdictArgs.ServiceId)
	keyFlag(verdictCmd, &verdictArgs.Skey)
	verdictCmd.Flags().Uint64VarP(&verdictArgs.Instance, "instance", "i", 0, "instance id")
	verdictCmd.Flags().StringVarP(&verdictArgs.Handle, "handle", "d", "", "dispute case handle")
	verdictCmd.Flags().Uint64VarP(&verdictArgs.Pass, "pass", "p", 0, "pass outcome value")
	verdictCmd.Flags().Uint64VarP(&verdictArgs.Fail, "fail", "f", 0, "fail outcome value")
	verdictCmd.Flags().Uint64VarP(&verdictArgs.Prevailed, "prevailed", "w", 0, "prevailing party, 1 reporter 2 challenger")
}

func verdictRun(cmd *cobra.Command, args []string) {
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeResolveDispute,
		Instance: verdictArgs.Instance,
		Tx: &op.ResolveDisputeOp{
			Handle:    verdictArgs.Handle,
			Pass:      verdictArgs.Pass,
			Fail:      verdictArgs.Fail,
			Prevailed: types.Party(verdictArgs.Prevailed),
		},
	}
	signAndSendOp(verdictArgs.Url, verdictArgs.ServiceId, verdictArgs.Skey, o)
}
