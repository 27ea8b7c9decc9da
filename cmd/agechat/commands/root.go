package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adamgoose/age-chat/internal/app"
)

var (
	home       string
	passphrase string
	brokerURL  string
	inviteBase string
	debug      bool

	appCtx *app.Wire
	logger *zap.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "agechat",
		Short:         "Peer-to-peer chat sealed with age",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".agechat")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			log, err := app.NewLogger(debug)
			if err != nil {
				return err
			}
			logger = log

			w, err := app.NewWire(app.Config{
				Home:       home,
				Passphrase: passphrase,
				BrokerURL:  brokerURL,
				InviteBase: inviteBase,
				Debug:      debug,
			}, logger)
			if err != nil {
				return err
			}
			appCtx = w
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.agechat)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase sealing the stored identity")
	root.PersistentFlags().StringVar(&brokerURL, "broker", "ws://127.0.0.1:8787", "rendezvous broker URL")
	root.PersistentFlags().StringVar(&inviteBase, "invite-base", "https://age-chat.local", "base URL of invite links")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging to stderr")

	root.AddCommand(chatCmd(), identityCmd(), inviteCmd(), fingerprintCmd(), demoCmd(), versionCmd())
	return root.Execute()
}
