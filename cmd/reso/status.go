package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type statusArguments struct {
	Url         string
	Instance    uint64
	Transitions bool
	Bonds       bool
}

var statusArgs statusArguments

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query an instance, optionally with its transition log and bonds",
	Long:  ``,
	Run:   statusRun,
}

func init() {
	urlFlag(statusCmd, &statusArgs.Url)
	statusCmd.Flags().Uint64VarP(&statusArgs.Instance, "instance", "i", 0, "instance id")
	statusCmd.Flags().BoolVarP(&statusArgs.Transitions, "transitions", "t", false, "include the transition log")
	statusCmd.Flags().BoolVarP(&statusArgs.Bonds, "bonds", "b", false, "include posted bonds")
}

func statusRun(cmd *cobra.Command, args []string) {
	req, err := json.Marshal(map[string]uint64{"instanceId": statusArgs.Instance})
	if err != nil {
		fmt.Printf("marshal request err:%v\n", err)
		return
	}
	postJSON(statusArgs.Url+"/getInstance", req)
	if statusArgs.Transitions {
		postJSON(statusArgs.Url+"/getTransitions", req)
	}
	if statusArgs.Bonds {
		postJSON(statusArgs.Url+"/getBonds", req)
	}
}
