package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersListCmd)
	customersCmd.AddCommand(customersAddCmd)

	customersAddCmd.Flags().String("name", "", "Customer name")
	customersAddCmd.Flags().String("debt", "0", "Initial debt")
	customersAddCmd.MarkFlagRequired("name")
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Inspect and extend the portfolio",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all customers with their balance and latest promise",
	Args:  cobra.NoArgs,
	RunE:  runCustomersList,
}

func runCustomersList(cmd *cobra.Command, args []string) error {
	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	rows, err := l.LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tDEUDA\tPAGADO\tSALDO\tPROMESA\tFECHA\tRIESGO")
	for _, c := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.TotalDebt, c.PaymentsMade, c.Outstanding(), c.PromisedAmount, c.PromiseDate, c.Risk)
	}
	return tw.Flush()
}

var customersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a customer with an initial debt",
	Args:  cobra.NoArgs,
	RunE:  runCustomersAdd,
}

func runCustomersAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	debtStr, _ := cmd.Flags().GetString("debt")

	debt, err := decimal.NewFromString(debtStr)
	if err != nil {
		return fmt.Errorf("invalid --debt %q: %w", debtStr, err)
	}

	l, closeFn, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	c, err := l.CreateCustomer(cmd.Context(), name, debt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cliente %d creado: %s, deuda %s\n", c.ID, c.Name, c.TotalDebt)
	return nil
}
