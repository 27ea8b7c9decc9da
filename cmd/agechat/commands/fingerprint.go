package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamgoose/age-chat/internal/crypto"
	"github.com/adamgoose/age-chat/internal/domain"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <public-key> [public-key]",
		Short: "Print the safety words two public keys share",
		Long: "Print the 24 safety words derived from two public keys. With one key,\n" +
			"the stored identity is the other side. Both peers see the same words.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := domain.PublicKey(args[0])
			var b domain.PublicKey
			if len(args) == 2 {
				b = domain.PublicKey(args[1])
			} else {
				id, ok, err := appCtx.Store.LoadIdentity()
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no stored identity; pass two keys or run `agechat identity save`")
				}
				b = id.PublicKey
			}
			for _, k := range []domain.PublicKey{a, b} {
				if _, err := crypto.ParseRecipient(k); err != nil {
					return err
				}
			}
			fp, err := appCtx.Crypto.Fingerprint(a, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}
