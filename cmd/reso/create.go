package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
)

type createArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
	Reporter  string
}

var createArgs createArguments

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a resolution instance with a designated reporter",
	Long:  ``,
	Run:   createRun,
}

func init() {
	urlFlag(createCmd, &createArgs.Url)
	serviceIdFlag(createCmd, &createArgs.ServiceId)
	keyFlag(createCmd, &createArgs.Skey)
	createCmd.Flags().Uint64VarP(&createArgs.Instance, "instance", "i", 0, "instance id")
	createCmd.Flags().StringVarP(&createArgs.Reporter, "reporter", "r", "", "designated reporter address")
}

func createRun(cmd *cobra.Command, args []string) {
	if !common.IsHexAddress(createArgs.Reporter) {
		fmt.Printf("reporter %q is not a hex address\n", createArgs.Reporter)
		return
	}
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeCreateInstance,
		Instance: createArgs.Instance,
		Tx: &op.CreateInstanceOp{
			DesignatedReporter: common.HexToAddress(createArgs.Reporter),
		},
	}
	signAndSendOp(createArgs.Url, createArgs.ServiceId, createArgs.Skey, o)
}
