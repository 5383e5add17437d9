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
	for _, c := range []*cobra.Command{challengesCmd, challengeClaimCmd} {
		c.Flags().StringVar(&challengeKid, "kid", "", "Kid id or name")
		c.Flags().StringVar(&challengeDate, "date", "", "Day as YYYY-MM-DD (default today)")
	}
	challengeClaimCmd.MarkFlagRequired("kid")
	challengesCmd.AddCommand(challengeClaimCmd)
	rootCmd.AddCommand(challengesCmd)
}

var (
	challengeKid  string
	challengeDate string
)

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "Show the daily challenges, optionally with a kid's progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		date := challengeDate
		if date == "" {
			date = ledger.DayKey(d.Store.Now())
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if challengeKid == "" {
			daily, err := engagement.DailyChallenges(date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Challenges for %s\n", date)
			fmt.Fprintln(w, "ID\tCHALLENGE\tREWARD\tDESCRIPTION")
			for _, c := range daily {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", c.ID, c.Icon, c.Name, money(c.Reward), c.Description)
			}
			return w.Flush()
		}

		s := d.Store.Snapshot()
		k, err := findKid(s, challengeKid)
		if err != nil {
			return err
		}
		status, err := engagement.DailyStatus(s, k.ID, date, d.Store.Now().Location())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Challenges for %s on %s\n", k.Name, date)
		fmt.Fprintln(w, "ID\tCHALLENGE\tREWARD\tPROGRESS\tSTATE")
		for _, c := range status {
			state := "open"
			switch {
			case c.Claimed:
				state = "claimed"
			case c.Progress.Completed:
				state = "ready to claim"
			}
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
				c.ID, c.Icon, c.Name, money(c.Reward), renderBar(c.Progress.Pct()), state)
		}
		return w.Flush()
	},
}

var challengeClaimCmd = &cobra.Command{
	Use:   "claim CHALLENGE_ID",
	Short: "Claim a completed challenge's reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		k, err := findKid(d.Store.Snapshot(), challengeKid)
		if err != nil {
			return err
		}
		date := challengeDate
		if date == "" {
			date = ledger.DayKey(d.Store.Now())
		}
		out, err := apply(cmd.Context(), d, household.CompleteChallenge{
			ChallengeID: args[0],
			KidID:       k.ID,
			Date:        date,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "+%s for %s: %s. Balance: %s\n",
			out.Appended[0].Amount.StringFixed(2), k.Name, out.Appended[0].Reason,
			money(ledger.Balance(k.ID, d.Store.Snapshot().Transactions)))
		return nil
	},
}
