// Package cli implementa o shopctl, a ferramenta de manutenção da loja.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/database"
	"github.com/ericoliveiras/shopeasy/internal/logging"
)

// RootOptions guarda as flags globais.
type RootOptions struct {
	EnvFile string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "shopctl",
		Short:         "Ferramentas de manutenção do shopeasy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "arquivo .env a carregar (ignorado se não existir)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedAdminCommand(opts))
	cmd.AddCommand(NewExportProductsCommand(opts))
	return cmd
}

// open carrega a configuração e abre o banco já migrado.
func (o *RootOptions) open(cmd *cobra.Command) (config.Config, *gorm.DB, *slog.Logger, error) {
	if err := config.LoadEnvFile(o.EnvFile); err != nil {
		return config.Config{}, nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log := logging.NewWithWriter(cmd.ErrOrStderr(), "shopctl", cfg.LogLevel)
	db, err := database.Connect(cfg, log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, db, log, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
