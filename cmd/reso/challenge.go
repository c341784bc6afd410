package main

import (
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
)

type challengeArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
	Pass      uint64
	Fail      uint64
	Evidence  string
	Amount    uint64
}

var challengeArgs challengeArguments

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Challenge the designated report with a competing outcome",
	Long:  ``,
	Run:   challengeRun,
}

func init() {
	urlFlag(challengeCmd, &challengeArgs.Url)
	serviceIdFlag(challengeCmd, &challengeArgs.ServiceId)
	keyFlag(challengeCmd, &challengeArgs.Skey)
	challengeCmd.Flags().Uint64VarP(&challengeArgs.Instance, "instance", "i", 0, "instance id")
	challengeCmd.Flags().Uint64VarP(&challengeArgs.Pass, "pass", "p", 0, "pass outcome value")
	challengeCmd.Flags().Uint64VarP(&challengeArgs.Fail, "fail", "f", 0, "fail outcome value")
	challengeCmd.Flags().StringVarP(&challengeArgs.Evidence, "evidence", "e", "", "opaque evidence payload")
	challengeCmd.Flags().Uint64VarP(&challengeArgs.Amount, "amount", "a", 0, "bond amount to post")
}

func challengeRun(cmd *cobra.Command, args []string) {
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeSubmitChallenge,
		Instance: challengeArgs.Instance,
		Tx: &op.SubmitChallengeOp{
			Pass:     challengeArgs.Pass,
			Fail:     challengeArgs.Fail,
			Evidence: []byte(challengeArgs.Evidence),
			Amount:   challengeArgs.Amount,
		},
	}
	signAndSendOp(challengeArgs.Url, challengeArgs.ServiceId, challengeArgs.Skey, o)
}
