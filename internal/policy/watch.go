package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounce = 300 * time.Millisecond

// Watch reloads the store whenever its file changes. Blocks until ctx is cancelled.
// The parent directory is watched so editors that replace the file are picked up.
func (s *Store) Watch(ctx context.Context, log zerolog.Logger) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("policy watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	target := filepath.Clean(s.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if err := s.Reload(); err != nil {
					log.Error().Err(err).Str("path", s.path).Msg("policy reload failed, keeping previous policy")
					return
				}
				cur := s.Current()
				log.Info().Str("path", s.path).Int("max_amendments", cur.MaxAmendments).
					Bool("auto_approve_on_no_match", cur.AutoApproveOnNoMatch).Msg("policy reloaded")
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("policy watcher error")
		}
	}
}
