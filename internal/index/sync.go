package index

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/storage"
)

var filenameRe = regexp.MustCompile(`^(.+)_(\d+)\.pdf$`)

// ParseFilename recovers the document kind and creation time encoded in an
// archive file name (Kind_<unix-ms>.pdf). ok is false for foreign names.
func ParseFilename(name string) (kind models.Kind, createdAt time.Time, ok bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return "", time.Time{}, false
	}
	ms, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return models.Kind(strings.ReplaceAll(m[1], "_", " ")), time.UnixMilli(ms).UTC(), true
}

// Sync reconciles the index with the archive directory:
//   - unindexed or changed files are indexed
//   - rows whose file is gone are removed
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}
		if err := indexFile(db, m); err != nil {
			logger.Warn("sync: index failed", slog.String("file", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("file", m.Path))
		}
	}

	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteDocument(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("file", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("file", name))
			}
		}
	}

	return nil
}

// indexFile records a file found on disk. Metadata already in the index is
// kept and only the checksum refreshed; otherwise it is recovered from the
// file name, falling back to the modification time.
func indexFile(db *DB, m models.FileMetadata) error {
	_, err := db.GetDocument(m.Path)
	switch {
	case err == nil:
		return db.SetChecksum(m.Path, m.Checksum)
	case !errors.Is(err, apperr.ErrNotFound):
		return err
	}

	rec := models.DocumentRecord{
		Filename:  m.Path,
		Checksum:  m.Checksum,
		CreatedAt: m.UpdatedAt,
	}
	if kind, at, ok := ParseFilename(m.Path); ok {
		rec.Kind = kind
		rec.CreatedAt = at
	}
	return db.UpsertDocument(rec, nil)
}
