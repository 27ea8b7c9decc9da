package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adamgoose/age-chat/internal/app"
	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/services/session"
	"github.com/adamgoose/age-chat/internal/transport/memory"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run two throwaway sessions in-process and print both histories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return runDemo(ctx, cmd.OutOrStdout())
		},
	}
}

// runDemo has alice invite bob over an in-process network, exchanges a
// message each way plus a file, then hangs up.
func runDemo(ctx context.Context, out io.Writer) error {
	w, err := app.NewWire(app.Config{
		Home:       home,
		InviteBase: inviteBase,
		Anonymous:  true,
		Transport:  memory.NewNetwork(),
	}, logger)
	if err != nil {
		return err
	}

	alice, err := w.NewSession(session.Invite{})
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return alice.Coordinator.Run(gctx) })
	if err := until(gctx, func() bool { return alice.Coordinator.State().EndpointOpen }); err != nil {
		return err
	}

	inv, err := session.ParseInvite(w.InviteLink(alice.Identity, true))
	if err != nil {
		return err
	}
	bob, err := w.NewSession(inv)
	if err != nil {
		return err
	}
	g.Go(func() error { return bob.Coordinator.Run(gctx) })

	g.Go(func() error {
		linked := func() bool {
			return alice.Coordinator.State().LinkOpen && bob.Coordinator.State().LinkOpen
		}
		if err := until(gctx, linked); err != nil {
			return err
		}
		if err := bob.Coordinator.SendMessage(gctx, "hi alice, are these words the same on your side?"); err != nil {
			return err
		}
		if err := alice.Coordinator.SendMessage(gctx, "they are. sending the report."); err != nil {
			return err
		}
		report := []byte("%PDF-1.7\n% quarterly numbers\n")
		meta := domain.FileMetadata{Filename: "report.pdf", MIME: "application/pdf"}
		if err := alice.Coordinator.SendFile(gctx, meta, report); err != nil {
			return err
		}
		if err := until(gctx, func() bool { return bob.History.Len() >= 4 }); err != nil {
			return err
		}
		if err := bob.Coordinator.Shutdown(gctx); err != nil {
			return err
		}
		if err := until(gctx, func() bool { return !alice.Coordinator.State().LinkOpen }); err != nil {
			return err
		}
		return alice.Coordinator.Shutdown(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range []struct {
		name string
		sess *app.Session
	}{{"alice", alice}, {"bob", bob}} {
		fmt.Fprintf(out, "== %s (%s)\n", s.name, s.sess.Identity.PublicKey.Short())
		for _, e := range s.sess.History.Snapshot() {
			fmt.Fprintln(out, formatEntry(s.sess.Identity.PublicKey, e))
		}
	}
	return nil
}

// until polls cond until it holds or ctx ends.
func until(ctx context.Context, cond func() bool) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
