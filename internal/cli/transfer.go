package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kidzy-family/kidzy/internal/app/household"
)

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm erasing all household data")
	rootCmd.AddCommand(exportCmd, importCmd, resetCmd)
}

var resetYes bool

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write the household as JSON to FILE or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		data, err := household.Export(d.Store.Snapshot())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(args[0], data, 0600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the household with a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}
		snap, err := household.Import(data)
		if err != nil {
			return err
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := apply(cmd.Context(), d, household.LoadData{Snapshot: snap}); err != nil {
			return err
		}
		s := d.Store.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d kids and %d transactions\n", len(s.Kids), len(s.Transactions))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all household data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("this erases every kid, wish and transaction; rerun with --yes")
		}
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := apply(cmd.Context(), d, household.ResetAll{}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Household reset")
		return nil
	},
}
