package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

type settled struct {
	path string
	gen  uint64
}

type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

// WatchInbox ingests the PDFs already in dir, then every PDF created or
// rewritten there, until ctx is done. A file is ingested once it has seen no
// events for the configured settle delay, so partially copied files are not
// picked up.
func (a *App) WatchInbox(ctx context.Context, dir string, watcher ports.FileWatcher) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}
	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && a.Loader.Supports(e.Name()) {
			a.ingestFromInbox(ctx, filepath.Join(dir, e.Name()))
		}
	}

	delay := a.Config.Ingest.SettleDelay
	ready := make(chan settled)
	pending := make(map[string]pendingFile)
	var gen uint64
	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if p, exists := pending[ev.Path]; exists {
				p.timer.Stop()
				delete(pending, ev.Path)
			}
			if ev.Operation == ports.FileDeleted {
				continue
			}
			gen++
			s := settled{path: ev.Path, gen: gen}
			pending[ev.Path] = pendingFile{
				gen: gen,
				timer: time.AfterFunc(delay, func() {
					select {
					case ready <- s:
					case <-ctx.Done():
					}
				}),
			}

		case s := <-ready:
			// a stopped timer may still deliver; only the latest one counts
			if p, exists := pending[s.path]; !exists || p.gen != s.gen {
				continue
			}
			delete(pending, s.path)
			a.ingestFromInbox(ctx, s.path)
		}
	}
}

func (a *App) ingestFromInbox(ctx context.Context, path string) {
	_, err := a.IngestFile(ctx, path)
	switch {
	case err == nil:
	case entities.IsDuplicateError(err):
		// already logged by IngestDocument
	default:
		a.Logger.Warn("inbox file not ingested", zap.String("path", path), zap.Error(err))
	}
}
