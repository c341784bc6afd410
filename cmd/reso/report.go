package main

import (
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
)

type reportArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
	Pass      uint64
	Fail      uint64
	Evidence  string
	Amount    uint64
}

var reportArgs reportArguments

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Submit the designated report for an instance",
	Long:  ``,
	Run:   reportRun,
}

func init() {
	urlFlag(reportCmd, &reportArgs.Url)
	serviceIdFlag(reportCmd, &reportArgs.ServiceId)
	keyFlag(reportCmd, &reportArgs.Skey)
	reportCmd.Flags().Uint64VarP(&reportArgs.Instance, "instance", "i", 0, "instance id")
	reportCmd.Flags().Uint64VarP(&reportArgs.Pass, "pass", "p", 0, "pass outcome value")
	reportCmd.Flags().Uint64VarP(&reportArgs.Fail, "fail", "f", 0, "fail outcome value")
	reportCmd.Flags().StringVarP(&reportArgs.Evidence, "evidence", "e", "", "opaque evidence payload")
	reportCmd.Flags().Uint64VarP(&reportArgs.Amount, "amount", "a", 0, "bond amount to post")
}

func reportRun(cmd *cobra.Command, args []string) {
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeSubmitReport,
		Instance: reportArgs.Instance,
		Tx: &op.SubmitReportOp{
			Pass:     reportArgs.Pass,
			Fail:     reportArgs.Fail,
			Evidence: []byte(reportArgs.Evidence),
			Amount:   reportArgs.Amount,
		},
	}
	signAndSendOp(reportArgs.Url, reportArgs.ServiceId, reportArgs.Skey, o)
}
