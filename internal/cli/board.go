package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kidzy-family/kidzy/internal/app/ledger"
)

func init() {
	boardCmd.Flags().BoolVar(&boardImproved, "improved", false, "Rank by improvement over last week")
	rootCmd.AddCommand(boardCmd)
}

var boardImproved bool

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show this week's leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		s := d.Store.Snapshot()
		now := d.Store.Now()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

		if boardImproved {
			fmt.Fprintln(w, "#\tKID\tTHIS WEEK\tLAST WEEK\tCHANGE")
			for i, e := range ledger.MostImprovedLeaderboard(s.Kids, s.Transactions, now) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%+d%%\n",
					i+1, e.Kid.Name, money(e.ThisWeek), money(e.LastWeek), e.ImprovementPct)
			}
			return w.Flush()
		}

		fmt.Fprintln(w, "#\tKID\tEARNED\tDEDUCTED\tNET\tSTREAK")
		for i, e := range ledger.WeeklyLeaderboard(s.Kids, s.Transactions, now) {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
				i+1, e.Kid.Name, money(e.WeeklyEarnings), money(e.WeeklyDeductions), money(e.WeeklyNet), e.Streak)
		}
		return w.Flush()
	},
}
