package main

import (
	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/op"
)

type archiveArguments struct {
	Url       string
	ServiceId string
	Skey      string
	Instance  uint64
}

var archiveArgs archiveArguments

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Mark a finalized instance as archived",
	Long:  ``,
	Run:   archiveRun,
}

func init() {
	urlFlag(archiveCmd, &archiveArgs.Url)
	serviceIdFlag(archiveCmd, &archiveArgs.ServiceId)
	keyFlag(archiveCmd, &archiveArgs.Skey)
	archiveCmd.Flags().Uint64VarP(&archiveArgs.Instance, "instance", "i", 0, "instance id")
}

func archiveRun(cmd *cobra.Command, args []string) {
	o := &op.Op{
		Version:  op.OpVersion1,
		Type:     op.OpTypeArchive,
		Instance: archiveArgs.Instance,
		Tx:       &op.ArchiveOp{},
	}
	signAndSendOp(archiveArgs.Url, archiveArgs.ServiceId, archiveArgs.Skey, o)
}
