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
	wishAddCmd.Flags().StringVar(&wishIcon, "icon", "", "Wish icon emoji")
	wishCmd.AddCommand(wishAddCmd, wishListCmd, wishRedeemCmd, wishFulfillCmd, wishRmCmd)
	rootCmd.AddCommand(wishCmd)
}

var wishIcon string

var wishCmd = &cobra.Command{
	Use:   "wish",
	Short: "Manage wish-list items kids save up for",
}

var wishAddCmd = &cobra.Command{
	Use:   "add KID TARGET NAME...",
	Short: "Add a wish for a kid",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		k, err := findKid(d.Store.Snapshot(), args[0])
		if err != nil {
			return err
		}
		add := household.AddWish{
			KidID:         k.ID,
			Name:          strings.Join(args[2:], " "),
			TargetDollars: target,
			Icon:          wishIcon,
		}
		if _, err := apply(cmd.Context(), d, add); err != nil {
			return err
		}
		s := d.Store.Snapshot()
		wi := s.WishListItems[len(s.WishListItems)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "Added wish %q for %s (%s), target %s\n",
			wi.Name, k.Name, wi.ID, money(wi.TargetDollars))
		return nil
	},
}

var wishListCmd = &cobra.Command{
	Use:     "list [KID]",
	Aliases: []string{"ls"},
	Short:   "List wishes with savings progress",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		s := d.Store.Snapshot()
		only := ""
		if len(args) == 1 {
			k, err := findKid(s, args[0])
			if err != nil {
				return err
			}
			only = k.ID
		}

		var rows []domain.WishListItem
		for _, wi := range s.WishListItems {
			if only == "" || wi.KidID == only {
				rows = append(rows, wi)
			}
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No wishes yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKID\tWISH\tTARGET\tSTATUS\tPROGRESS")
		for _, wi := range rows {
			kid, _ := s.Kid(wi.KidID)
			pct := ledger.WishProgressPercent(wi.TargetDollars, ledger.Balance(wi.KidID, s.Transactions))
			status := string(wi.Status)
			if wi.Fulfilled {
				status = "fulfilled"
			}
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
				wi.ID, kid.Name, wi.Icon, wi.Name, money(wi.TargetDollars), status, renderBar(pct))
		}
		return w.Flush()
	},
}

var wishRedeemCmd = &cobra.Command{
	Use:   "redeem WISH_ID",
	Short: "Spend a kid's K$ on a wish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		s := d.Store.Snapshot()
		wi, ok := s.Wish(args[0])
		if !ok {
			return domain.Missing("wish", args[0])
		}
		redeem := household.RedeemWish{
			WishID:   wi.ID,
			KidID:    wi.KidID,
			Amount:   wi.TargetDollars,
			WishName: wi.Name,
			ParentID: s.CurrentParentID,
		}
		if _, err := apply(cmd.Context(), d, redeem); err != nil {
			return err
		}
		kid, _ := s.Kid(wi.KidID)
		fmt.Fprintf(cmd.OutOrStdout(), "Redeemed %q for %s. Balance: %s\n",
			wi.Name, kid.Name, money(ledger.Balance(wi.KidID, d.Store.Snapshot().Transactions)))
		return nil
	},
}

var wishFulfillCmd = &cobra.Command{
	Use:   "fulfill WISH_ID",
	Short: "Mark a redeemed wish as handed over",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := apply(cmd.Context(), d, household.FulfillWish{ID: args[0]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wish %s fulfilled\n", args[0])
		return nil
	},
}

var wishRmCmd = &cobra.Command{
	Use:   "rm WISH_ID",
	Short: "Remove a wish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := apply(cmd.Context(), d, household.RemoveWish{ID: args[0]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed wish %s\n", args[0])
		return nil
	},
}
