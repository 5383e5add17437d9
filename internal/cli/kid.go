package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/app/ledger"
)

func init() {
	kidAddCmd.Flags().IntVar(&kidAge, "age", 0, "Age in years")
	kidAddCmd.Flags().StringVar(&kidAvatar, "avatar", "", "Avatar emoji")

	kidCmd.AddCommand(kidAddCmd, kidListCmd, kidShowCmd, kidRmCmd)
	rootCmd.AddCommand(kidCmd)
}

var (
	kidAge    int
	kidAvatar string
)

var kidCmd = &cobra.Command{
	Use:   "kid",
	Short: "Manage kids",
}

var kidAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a kid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		add := household.AddKid{Name: args[0], Avatar: kidAvatar}
		if cmd.Flags().Changed("age") {
			add.Age = &kidAge
		}
		if _, err := apply(cmd.Context(), d, add); err != nil {
			return err
		}
		s := d.Store.Snapshot()
		k := s.Kids[len(s.Kids)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", k.Name, k.ID)
		return nil
	},
}

var kidListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List kids with balances and streaks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		s := d.Store.Snapshot()
		if len(s.Kids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No kids yet. Run 'kidzy kid add NAME' to add one.")
			return nil
		}

		now := d.Store.Now()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBALANCE\tTODAY\tTHIS WEEK\tSTREAK")
		for _, k := range s.Kids {
			sum := ledger.KidSummary(k, s.Transactions, now)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				k.ID, k.Name, money(sum.Balance), money(sum.TodayEarnings), money(sum.WeekEarnings), sum.Streak)
		}
		return w.Flush()
	},
}

var kidShowCmd = &cobra.Command{
	Use:   "show KID",
	Short: "Show a kid's stats and badges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		now := d.Store.Now()
		sum := ledger.KidSummary(k, s.Transactions, now)
		report := engagement.Achievements(k.ID, s.Transactions, now)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", k.Avatar, k.Name)
		fmt.Fprintf(out, "  Balance:        %s\n", money(sum.Balance))
		fmt.Fprintf(out, "  Today:          %s\n", money(sum.TodayEarnings))
		fmt.Fprintf(out, "  This week:      %s\n", money(sum.WeekEarnings))
		fmt.Fprintf(out, "  Streak:         %d day(s) (best %d)\n", sum.Streak, sum.LongestStreak)
		if sum.DailyHigh.Amount.IsPositive() {
			fmt.Fprintf(out, "  Best day:       %s on %s\n", money(sum.DailyHigh.Amount), sum.DailyHigh.Date)
		}
		fmt.Fprintf(out, "\nBadges %d/%d\n", report.Unlocked, report.Total)
		for _, b := range report.All {
			mark := "  "
			if b.Unlocked {
				mark = "✓ "
			}
			fmt.Fprintf(out, "  %s%s %-16s %s/%s\n", mark, b.Icon, b.Name, b.Progress, b.Target)
		}
		return nil
	},
}

var kidRmCmd = &cobra.Command{
	Use:   "rm KID",
	Short: "Remove a kid and all of their history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		k, err := findKid(d.Store.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if _, err := apply(cmd.Context(), d, household.RemoveKid{ID: k.ID}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", k.Name)
		return nil
	},
}
