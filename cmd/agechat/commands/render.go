package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamgoose/age-chat/internal/app"
	"github.com/adamgoose/age-chat/internal/domain"
)

// who names the author of an event from the local point of view.
func who(self, from domain.PublicKey) string {
	if from == self {
		return "you"
	}
	return from.Short()
}

// formatEntry renders one history entry as a single terminal line.
func formatEntry(self domain.PublicKey, e domain.HistoryEntry) string {
	ts := e.Timestamp.Format("15:04:05")
	switch ev := e.Event.(type) {
	case domain.MessageEvent:
		return fmt.Sprintf("[%s] %s: %s", ts, who(self, ev.From), ev.Text)
	case domain.FileEvent:
		return fmt.Sprintf("[%s] %s sent %s (%s, %d bytes)", ts, who(self, ev.From), ev.Filename, ev.MIME, ev.Size)
	case domain.LinkOpenedEvent:
		return fmt.Sprintf("[%s] connected to %s\n           safety words: %s", ts, ev.Peer, ev.Fingerprint)
	case domain.LinkClosedEvent:
		return fmt.Sprintf("[%s] %s disconnected", ts, ev.Peer.Short())
	default:
		return fmt.Sprintf("[%s] %v", ts, ev)
	}
}

// printHistory writes new history entries to out until ctx ends or the
// session's coordinator stops. Received files are saved under saveDir
// when it is set. Entries recorded during teardown are printed before it
// returns.
func printHistory(ctx context.Context, out io.Writer, s *app.Session, saveDir string) error {
	var seen uint64
	flush := func() {
		for _, e := range s.History.Since(seen) {
			seen = e.Seq
			fmt.Fprintln(out, formatEntry(s.Identity.PublicKey, e))
			if f, ok := e.Event.(domain.FileEvent); ok && f.From != s.Identity.PublicKey && saveDir != "" {
				path, err := saveFile(saveDir, f)
				if err != nil {
					fmt.Fprintf(out, "           could not save %s: %v\n", f.Filename, err)
					continue
				}
				fmt.Fprintf(out, "           saved to %s\n", path)
			}
		}
	}
	for {
		changed := s.History.Changed()
		flush()
		select {
		case <-changed:
		case err := <-s.Coordinator.Failures():
			fmt.Fprintf(out, "! dropped a message that could not be decrypted (%v)\n", err)
		case <-s.Coordinator.Done():
			flush()
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// saveFile writes a received file under dir, keeping only the base name
// the peer supplied. An existing file is never replaced; a numeric suffix
// is added instead.
func saveFile(dir string, f domain.FileEvent) (string, error) {
	name := filepath.Base(filepath.Clean("/" + f.Filename))
	if name == "/" || name == "." {
		name = "download"
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < maxSaveAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := fh.Write(f.Data); err != nil {
			_ = fh.Close()
			_ = os.Remove(path)
			return "", err
		}
		if err := fh.Close(); err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("%s: no free name after %d attempts", name, maxSaveAttempts)
}

const maxSaveAttempts = 1000
