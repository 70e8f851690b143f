package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericoliveiras/shopeasy/internal/database"
	"github.com/ericoliveiras/shopeasy/internal/export"
	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/service"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Cria ou atualiza as tabelas do banco",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Connect já executa as migrações.
			_, db, log, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB(db)
			log.Info("migrações aplicadas")
			fmt.Fprintln(cmd.OutOrStdout(), "migrações aplicadas")
			return nil
		},
	}
}

func NewSeedAdminCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Cria a conta de administrador se ela não existir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, log, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB(db)
			if email == "" {
				email = cfg.AdminEmail
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			created, err := database.SeedAdmin(db, log, email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s criado\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s já existe\n", email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail do admin (padrão: ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "senha do admin (padrão: ADMIN_PASSWORD)")
	return cmd
}

func NewExportProductsCommand(rootOpts *RootOptions) *cobra.Command {
	var out, baseURL string
	cmd := &cobra.Command{
		Use:   "export-products",
		Short: "Exporta o catálogo ativo para uma planilha .xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out é obrigatório")
			}
			_, db, log, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB(db)

			products, err := service.NewCatalogService(db, log).All(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("falha ao criar %s: %w", out, err)
			}
			err = export.WriteProducts(f, products, func(p model.Product) string {
				if url := service.ResolveImageURL(p, baseURL); url != nil {
					return *url
				}
				return ""
			})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d produtos exportados para %s\n", len(products), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "products.xlsx", "arquivo de saída")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "URL base usada nas imagens enviadas")
	return cmd
}
