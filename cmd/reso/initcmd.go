package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veridex/reso-app/config"
	"github.com/veridex/reso-app/crypto"
)

type printInfo struct {
	ServiceId  string `json:"service_id"`
	Home       string `json:"home"`
	Operator   string `json:"operator"`
	ConfigFile string `json:"config_file"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize operator key and service configuration files",
	Long:  `Initialize the home directory, operator identity key and config.toml.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP("overwrite", "o", false, "overwrite existing config.toml")
	initCmd.Flags().String("service", "", "service identifier, defaults to reso-local")
	initCmd.Flags().String("home", "", "home directory")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString("home")
	serviceId, _ := cmd.Flags().GetString("service")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	appConfig := config.DefaultConfig(home)
	if serviceId != "" {
		appConfig.ServiceId = serviceId
	}
	if err := config.EnsureRoot(appConfig.Home); err != nil {
		return err
	}

	key, err := crypto.Generate()
	if err != nil {
		return err
	}
	if _, err := os.Stat(appConfig.KeyFile()); err == nil && !overwrite {
		return fmt.Errorf("operator key already exists at %v", appConfig.KeyFile())
	}
	if err := key.SaveKeyFile(appConfig.KeyFile()); err != nil {
		return err
	}

	// The freshly generated operator starts as the only finalizer; edit
	// config.toml to grant more.
	appConfig.Finalizers = []string{key.Address().Hex()}
	appConfig.Relayer = key.Address().Hex()

	if _, err := os.Stat(appConfig.ConfigFile()); err == nil && !overwrite {
		return fmt.Errorf("config already exists at %v", appConfig.ConfigFile())
	}
	if err := config.WriteConfigFile(appConfig.ConfigFile(), appConfig); err != nil {
		return err
	}

	return displayInfo(printInfo{
		ServiceId:  appConfig.ServiceId,
		Home:       appConfig.Home,
		Operator:   key.Address().Hex(),
		ConfigFile: appConfig.ConfigFile(),
	})
}
