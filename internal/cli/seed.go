package cli

import (
	"context"
	"fmt"
	"log"

	"examprep-quiz/internal/config"
	"examprep-quiz/internal/infra/file"
	pgloader "examprep-quiz/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a YAML question bank into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var bankPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the stored question bank with a YAML bank file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, bankPath)
		},
	}
	cmd.Flags().StringVar(&bankPath, "bank", "", "path to YAML bank (defaults to quiz.bankPath)")
	return cmd
}

func runSeed(ctx context.Context, configPath, bankPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bankPath == "" {
		bankPath = cfg.Quiz.BankPath
	}
	if bankPath == "" {
		return fmt.Errorf("no bank file: pass --bank or set quiz.bankPath")
	}

	bank, err := file.ReadBank(bankPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := pgloader.SeedBank(ctx, db, bank.Sections); err != nil {
		return err
	}
	log.Printf("seeded %d sections from %s", len(bank.Sections), bankPath)
	return nil
}
