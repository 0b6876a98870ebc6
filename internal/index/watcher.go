package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/f2023065371-lang/fazal-portfolio/internal/checksum"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, filename string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the archive directory and keeps the
// index in step with it until ctx is cancelled. cb (if non-nil) is called
// after each successful index mutation.
//
// Rename events trigger a debounced reconciliation pass, because fsnotify
// only reports the old name.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind, name string) {
		if cb != nil {
			cb(kind, name)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(root) || !storage.IsDocument(name) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", readErr.Error()))
					continue
				}
				sum := checksum.Sum(data)
				existing, getErr := db.GetDocument(name)
				if getErr == nil && existing.Checksum == sum {
					continue
				}
				meta := models.FileMetadata{Path: name, Checksum: sum, UpdatedAt: time.Now().UTC()}
				if idxErr := indexFile(db, meta); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("file", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if getErr != nil {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("file", name), slog.String("op", kind))
				notify(kind, name)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteDocument(name); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("file", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("file", name))
				notify("deleted", name)

			case ev.Op&fsnotify.Rename != 0:
				if delErr := db.DeleteDocument(name); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("file", name), slog.String("error", delErr.Error()))
				} else {
					notify("deleted", name)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes rows without a file and indexes files without a row.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify func(kind, name string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			continue
		}
		if idxErr := indexFile(db, m); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("file", m.Path))
			notify("created", m.Path)
		}
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if delErr := db.DeleteDocument(name); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("file", name))
				notify("deleted", name)
			}
		}
	}
}
