package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the household, storage usage and health checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		s := d.Store.Snapshot()
		if s.Family == nil {
			fmt.Fprintln(out, "Household: not set up (run 'kidzy setup')")
		} else {
			session := "logged out"
			if p, ok := s.Parent(s.CurrentParentID); ok {
				session = p.Name
			}
			fmt.Fprintf(out, "Household: %s family, %d parent(s), %d kid(s), %d transaction(s)\n",
				s.Family.Name, len(s.Parents), len(s.Kids), len(s.Transactions))
			fmt.Fprintf(out, "Session:   %s\n", session)
		}

		info, err := d.DB.Info(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Data:      %s\n", d.DB.Path())
		switch {
		case info.SavedAt.IsZero():
			fmt.Fprintln(out, "Storage:   nothing saved yet")
		case info.Limit > 0:
			fmt.Fprintf(out, "Storage:   %s of %s, saved %s\n",
				sizeOf(info.SizeBytes), sizeOf(info.Limit), info.SavedAt.Format(time.DateTime))
		default:
			fmt.Fprintf(out, "Storage:   %s, saved %s\n", sizeOf(info.SizeBytes), info.SavedAt.Format(time.DateTime))
		}

		d.Health.RunOnce(cmd.Context())
		fmt.Fprintln(out, "\nHealth")
		for _, st := range d.Health.Statuses() {
			if st.Healthy {
				fmt.Fprintf(out, "  ✓ %s\n", st.Name)
			} else {
				fmt.Fprintf(out, "  ✗ %s: %s\n", st.Name, st.Error)
			}
		}
		return nil
	},
}

func sizeOf(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
