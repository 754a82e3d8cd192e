package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"paypromise/internal/config"
	"paypromise/internal/ledger"
	"paypromise/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "paypromise",
	Short: "Collections assistant that records and rates payment promises",
	Long: `paypromise negotiates payment promises with customers over chat and
voice, stores them in the portfolio ledger and rates each promise Baja or
Alta against the customer's outstanding balance.

Configuration comes from the environment, optionally layered over the TOML
file named by PAYPROMISE_CONFIG.`,
	SilenceUsage: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openLedger opens the configured store for one-shot commands.
func openLedger(ctx context.Context) (*ledger.Ledger, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	backend, closeFn, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return ledger.New(backend), closeFn, nil
}
