package main

import (
	"errors"

	"github.com/spf13/cobra"

	"crowdfund/pkg/config"
)

func dbCommand(cfg config.Config) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back SQL migrations",
	}
	migrateCmd.PersistentFlags().String("dir", cfg.MigrationsDir, "migrations directory")
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireDB(cfg); err != nil {
					return err
				}
				dir, _ := cmd.Flags().GetString("dir")
				config.ExecuteMigrations(dir)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireDB(cfg); err != nil {
					return err
				}
				dir, _ := cmd.Flags().GetString("dir")
				config.RollbackMigration(dir)
				return nil
			},
		},
	)

	cmd := &cobra.Command{Use: "db", Short: "Database maintenance"}
	cmd.AddCommand(migrateCmd)
	return cmd
}

func queueCommand(cfg config.Config) *cobra.Command {
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop every pending message from the events queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Broker.Enabled() {
				return errors.New("RABBITMQ_HOST is not set")
			}
			name, _ := cmd.Flags().GetString("queue")
			config.InitRabbitMQ(cfg.Broker)
			defer config.RabbitMQ.Close()
			return config.PurgeQueue(name)
		},
	}
	purgeCmd.Flags().String("queue", config.FundraiserEventsQueue, "queue name")

	cmd := &cobra.Command{Use: "queue", Short: "RabbitMQ maintenance"}
	cmd.AddCommand(purgeCmd)
	return cmd
}

func requireDB(cfg config.Config) error {
	if !cfg.Database.Enabled() {
		return errors.New("DB_HOST is not set")
	}
	config.InitDB(cfg.Database)
	return nil
}
