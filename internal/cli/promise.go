package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(promiseCmd)
	promiseCmd.AddCommand(promiseRecordCmd)

	promiseRecordCmd.Flags().Int64("id", 0, "Customer id")
	promiseRecordCmd.Flags().String("amount", "", "Promised amount")
	promiseRecordCmd.Flags().String("date", "", "Promised payment date, DD/MM/YYYY")
	promiseRecordCmd.MarkFlagRequired("id")
	promiseRecordCmd.MarkFlagRequired("amount")
	promiseRecordCmd.MarkFlagRequired("date")
}

var promiseCmd = &cobra.Command{
	Use:   "promise",
	Short: "Manage payment promises",
}

var promiseRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a payment promise and print its risk rating",
	Args:  cobra.NoArgs,
	RunE:  runPromiseRecord,
}

func runPromiseRecord(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt64("id")
	amountStr, _ := cmd.Flags().GetString("amount")
	date, _ := cmd.Flags().GetString("date")

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", amountStr, err)
	}

	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	risk, err := l.RecordPromise(cmd.Context(), id, amount, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registro exitoso: $%s para el %s. Riesgo: %s.\n", amount, date, risk)
	return nil
}
