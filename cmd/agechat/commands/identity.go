package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func identityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage the stored identity",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored public key and its invite link",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				id, ok, err := appCtx.Store.LoadIdentity()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintf(out, "No identity stored in %s\n", appCtx.Store.Path())
					return nil
				}
				fmt.Fprintf(out, "Public key: %s\nInvite:     %s\n", id.PublicKey, appCtx.InviteLink(id, false))
				return nil
			},
		},
		&cobra.Command{
			Use:   "save",
			Short: "Generate an identity if none is stored, then store it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := appCtx.Identity.Load(false)
				if err != nil {
					return err
				}
				if err := appCtx.Identity.Persist(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Identity stored.\nPublic key: %s\n", id.PublicKey)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored identity",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := appCtx.Identity.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Identity removed.")
				return nil
			},
		},
	)
	return cmd
}
