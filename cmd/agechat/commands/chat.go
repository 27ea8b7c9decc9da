package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adamgoose/age-chat/internal/app"
	"github.com/adamgoose/age-chat/internal/domain"
	"github.com/adamgoose/age-chat/internal/services/session"
)

const chatHelp = `Type a line and press enter to send it.
  /file <path>   send a file
  /state         show the connection state
  /quit          leave`

func chatCmd() *cobra.Command {
	var (
		anonymous    bool
		saveIdentity bool
		saveDir      string
	)
	cmd := &cobra.Command{
		Use:   "chat [invite]",
		Short: "Open a chat session, dialing the inviter if an invite is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			inv, err := session.ParseInvite(raw)
			if err != nil {
				return err
			}
			if anonymous {
				inv.Ephemeral = true
			}
			s, err := appCtx.NewSession(inv)
			if err != nil {
				return err
			}
			if saveIdentity {
				if err := appCtx.Identity.Persist(s.Identity); err != nil {
					return fmt.Errorf("save identity: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "You are %s\n", s.Identity.PublicKey)
			fmt.Fprintf(out, "Invite:  %s\n", appCtx.InviteLink(s.Identity, s.Ephemeral))
			if !s.Recipient.IsZero() {
				fmt.Fprintf(out, "Dialing %s ...\n", s.Recipient.Short())
			}
			fmt.Fprintln(out, chatHelp)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runChat(ctx, s, cmd.InOrStdin(), out, saveDir)
		},
	}
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "use a throwaway identity that is never stored")
	cmd.Flags().BoolVar(&saveIdentity, "save-identity", false, "store the identity so later sessions reuse it")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "directory for received files (default: do not save)")
	return cmd
}

// runChat drives one session until the coordinator stops.
func runChat(ctx context.Context, s *app.Session, in io.Reader, out io.Writer, saveDir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Coordinator.Run(ctx) })
	g.Go(func() error { return printHistory(ctx, out, s, saveDir) })
	g.Go(func() error { return readInput(ctx, in, out, s) })
	return g.Wait()
}

// readInput turns input lines into coordinator commands. The scanner runs
// on its own goroutine since a terminal read cannot be interrupted.
func readInput(ctx context.Context, in io.Reader, out io.Writer, s *app.Session) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-s.Coordinator.Done():
				return
			}
		}
	}()

	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Coordinator.Shutdown(sctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.Coordinator.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return shutdown()
			}
			quit, err := handleLine(ctx, out, s, line)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			if quit {
				return shutdown()
			}
		}
	}
}

func handleLine(ctx context.Context, out io.Writer, s *app.Session, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case line == "/state":
		st := s.Coordinator.State()
		fmt.Fprintf(out, "endpoint open: %v, link open: %v, peer: %s\n", st.EndpointOpen, st.LinkOpen, st.Recipient)
		if st.Fingerprint != "" {
			fmt.Fprintf(out, "safety words: %s\n", st.Fingerprint)
		}
		return false, nil
	case strings.HasPrefix(line, "/file "):
		if !s.Coordinator.State().LinkOpen {
			return false, fmt.Errorf("not connected; file not sent")
		}
		meta, data, err := readAttachment(strings.TrimSpace(strings.TrimPrefix(line, "/file ")))
		if err != nil {
			return false, err
		}
		return false, s.Coordinator.SendFile(ctx, meta, data)
	default:
		if !s.Coordinator.State().LinkOpen {
			return false, fmt.Errorf("not connected; message not sent")
		}
		return false, s.Coordinator.SendMessage(ctx, line)
	}
}

// readAttachment loads path and guesses its MIME type from the extension,
// falling back to content sniffing.
func readAttachment(path string) (domain.FileMetadata, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FileMetadata{}, nil, err
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return domain.FileMetadata{
		Filename: filepath.Base(path),
		Size:     int64(len(data)),
		MIME:     mt,
	}, data, nil
}
