package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/app/ledger"
	"github.com/kidzy-family/kidzy/internal/domain"
)

func init() {
	earnCmd.Flags().StringVar(&earnAmount, "amount", "", "Custom amount instead of a catalog behavior")
	earnCmd.Flags().StringVar(&earnReason, "reason", "", "Reason for a custom amount")
	rootCmd.AddCommand(earnCmd, deductCmd, behaviorsCmd)
}

var (
	earnAmount string
	earnReason string
)

var earnCmd = &cobra.Command{
	Use:   "earn KID [BEHAVIOR]",
	Short: "Award K$ for a catalog behavior or a custom amount",
	Long: `Award K$ to a kid. With a BEHAVIOR id (see 'kidzy behaviors') the
behavior's value is awarded with a chance of a double or triple bonus.
With --amount and --reason a custom award is recorded instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEarn,
}

func runEarn(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	s := d.Store.Snapshot()
	k, err := findKid(s, args[0])
	if err != nil {
		return err
	}

	var (
		tx    household.AddTransaction
		bonus domain.Bonus
	)
	switch {
	case len(args) == 2:
		bonus = d.Roller.Roll()
		tx, err = household.BehaviorEarn(s, k.ID, s.CurrentParentID, args[1], bonus)
		if err != nil {
			return err
		}
	case earnAmount != "":
		amt, err := parseAmount(earnAmount)
		if err != nil {
			return err
		}
		tx = household.CustomEarn(k.ID, s.CurrentParentID, amt, earnReason)
	default:
		return fmt.Errorf("give a BEHAVIOR id or --amount and --reason")
	}

	out, err := apply(cmd.Context(), d, tx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if bonus.Label != "" {
		fmt.Fprintf(w, "%s x%d\n", bonus.Label, bonus.Multiplier)
	}
	earned := out.Appended[0]
	fmt.Fprintf(w, "+%s for %s: %s\n", earned.Amount.StringFixed(2), k.Name, earned.Reason)
	fmt.Fprintf(w, "%s Balance: %s\n", d.Roller.Encouragement(),
		money(ledger.Balance(k.ID, d.Store.Snapshot().Transactions)))
	return nil
}

var deductCmd = &cobra.Command{
	Use:   "deduct KID AMOUNT REASON...",
	Short: "Deduct K$ from a kid",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amt, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		s := d.Store.Snapshot()
		k, err := findKid(s, args[0])
		if err != nil {
			return err
		}
		reason := strings.Join(args[2:], " ")
		if _, err := apply(cmd.Context(), d, household.Deduction(k.ID, s.CurrentParentID, amt, reason)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "-%s for %s: %s. Balance: %s\n", amt.StringFixed(2), k.Name, reason,
			money(ledger.Balance(k.ID, d.Store.Snapshot().Transactions)))
		return nil
	},
}

var behaviorsCmd = &cobra.Command{
	Use:   "behaviors",
	Short: "List the behavior catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tBEHAVIOR\tVALUE\tFREQUENCY")
		for _, c := range d.Store.Snapshot().BehaviorCategories {
			for _, it := range c.Items {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
					it.ID, c.Icon, c.Name, it.Name, money(it.DollarValue), it.Frequency)
			}
		}
		return w.Flush()
	},
}
