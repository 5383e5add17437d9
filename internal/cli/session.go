package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kidzy-family/kidzy/internal/app/auth"
	"github.com/kidzy-family/kidzy/internal/app/household"
)

func init() {
	setupCmd.Flags().StringVar(&setupFamily, "family", "", "Family name (required)")
	setupCmd.Flags().StringVar(&setupParent, "parent", "", "First parent's name (required)")
	setupCmd.Flags().StringVar(&setupEmail, "email", "", "First parent's email")
	setupCmd.Flags().StringVar(&setupPIN, "pin", "", "Family PIN, 4-12 digits (read from stdin if omitted)")
	setupCmd.Flags().StringSliceVar(&setupKids, "kid", nil, "Kid name (repeatable)")
	setupCmd.MarkFlagRequired("family")
	setupCmd.MarkFlagRequired("parent")

	loginCmd.Flags().StringVar(&loginPIN, "pin", "", "Family PIN (read from stdin if omitted)")

	rootCmd.AddCommand(setupCmd, loginCmd, logoutCmd)
}

var (
	setupFamily string
	setupParent string
	setupEmail  string
	setupPIN    string
	setupKids   []string

	loginPIN string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the family, the first parent and the kids",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	pin, err := pinFrom(cmd, setupPIN)
	if err != nil {
		return err
	}
	if err := auth.ValidatePIN(pin); err != nil {
		return err
	}
	hashed, err := auth.HashPIN(pin)
	if err != nil {
		return err
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	kids := make([]household.KidInput, 0, len(setupKids))
	for _, name := range setupKids {
		kids = append(kids, household.KidInput{Name: name})
	}
	if _, err := apply(cmd.Context(), d, household.SetupFamily{
		FamilyName:  setupFamily,
		PIN:         hashed,
		ParentName:  setupParent,
		ParentEmail: setupEmail,
		Kids:        kids,
	}); err != nil {
		return err
	}

	s := d.Store.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s family! %d kid(s) ready to earn.\n", s.Family.Name, len(s.Kids))
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login PARENT",
	Short: "Log a parent in with the family PIN",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	s := d.Store.Snapshot()
	if err := requireFamily(s); err != nil {
		return err
	}
	p, err := findParent(s, args[0])
	if err != nil {
		return err
	}
	pin, err := pinFrom(cmd, loginPIN)
	if err != nil {
		return err
	}
	if err := d.Auth.Login(cmd.Context(), p.ID, pin); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", p.Name)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the parent session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if _, err := apply(cmd.Context(), d, household.Logout{}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

// pinFrom returns flag, or reads the PIN from stdin when it is empty.
func pinFrom(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "PIN: ")
	pin, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read PIN: %w", err)
	}
	return pin, nil
}
