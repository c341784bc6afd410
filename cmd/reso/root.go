package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	cosmoslog "cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/veridex/reso-app/bond"
	app_config "github.com/veridex/reso-app/config"
	"github.com/veridex/reso-app/gateway"
	"github.com/veridex/reso-app/service"
	"github.com/veridex/reso-app/state"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "reso",
	Short: "RESO is a dispute-resolution engine",
	Long: `Multi-stage dispute-resolution engine for proposal outcomes:
designated reporting, open challenge, escalation and finalization.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.reso")
	}

	appConfig := app_config.DefaultConfig(homeDir)
	viper.SetConfigFile(appConfig.ConfigFile())

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		log.Fatalf("Decoding config: %v", err)
	}
	if err := appConfig.ValidateBasic(); err != nil {
		log.Fatalf("Invalid configuration data: %v", err)
	}

	filter, err := cosmoslog.ParseLogLevel(appConfig.LogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}
	logger := cosmoslog.NewLogger(os.Stdout, cosmoslog.FilterOption(filter))

	store, err := state.NewStateDB(appConfig.DBDir, logger)
	if err != nil {
		log.Fatalf("open store err:%v", err)
	}
	defer store.Close()

	ledger, err := bond.NewLevelLedger(appConfig.LedgerDir, bond.Requirements{
		Reporter:   appConfig.ReporterBond,
		Challenger: appConfig.ChallengerBond,
	}, logger)
	if err != nil {
		log.Fatalf("open bond ledger err:%v", err)
	}
	defer ledger.Close()

	gw := gateway.NewHTTPGateway(appConfig.GatewayUrl, logger)
	machine := state.NewMachine(appConfig.ChallengePeriodDuration(), appConfig.SettlementWindowDuration(), logger)
	svc := service.NewService(store, ledger, gw, machine, appConfig.FinalizerSet(), appConfig.RelayerAddress(), logger)

	indexer, err := service.NewIndexer(appConfig.IndexDB, svc.Events(), logger)
	if err != nil {
		log.Fatalf("new indexer err:%v", err)
	}
	defer indexer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go indexer.Start(ctx)
	go svc.WatchDisputes(ctx, appConfig.PollIntervalDuration())

	httpSvc := service.NewHTTPService(appConfig.ListenAddr, appConfig.ServiceId, svc, indexer, logger)
	go func() {
		if err := httpSvc.Start(); err != nil {
			log.Fatalf("http service err:%v", err)
		}
	}()
	logger.Info("resolution service started", "listen", appConfig.ListenAddr, "service", appConfig.ServiceId)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Println("shut down...")
}
