package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/crypto"
)

type keyArguments struct {
	Skey string
}

var keyArgs keyArguments

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the address of an operator key",
	Long:  ``,
	Run:   keyRun,
}

func init() {
	keyFlag(keyCmd, &keyArgs.Skey)
}

func keyRun(cmd *cobra.Command, args []string) {
	key, err := crypto.LoadKeyFile(keyArgs.Skey)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	println("address:", key.Address().Hex())
}
