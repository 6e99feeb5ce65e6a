package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"crowdfund/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.InitLogger(cfg.LogLevel, false)

	if err := newRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "fundctl",
		Short:        "Operator tool for the crowdfund ledger",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("program", cfg.Fundraiser.ProgramID, "fundraiser program id")
	rootCmd.PersistentFlags().String("keystore", cfg.KeystoreDir, "keystore directory")

	rootCmd.AddCommand(
		keygenCommand(),
		keysCommand(),
		pdaCommand(),
		txCommand(),
		dbCommand(cfg),
		queueCommand(cfg),
	)
	return rootCmd
}
