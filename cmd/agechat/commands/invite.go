package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func inviteCmd() *cobra.Command {
	var anonymous bool
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Print an invite link for the stored identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := appCtx.Identity.Load(false)
			if err != nil {
				return err
			}
			if err := appCtx.Identity.Persist(id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), appCtx.InviteLink(id, anonymous))
			return nil
		},
	}
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "ask the invitee not to store an identity")
	return cmd
}
