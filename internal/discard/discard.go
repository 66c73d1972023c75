// Package discard relocates rejected segmentations into a discard area and
// records every rejection in an append-only CSV audit log.
//
// Two policies exist. Discard copies the segmentation (or one slice of a
// series) and leaves the source in place, so the reviewer can keep working on
// the pair. DiscardPair moves the whole segmentation away; callers are
// expected to drop the pair from their session afterwards.
package discard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/discovery"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/infra/fsx"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/loader"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// ErrNoDiscardRoot is returned when no discard directory is configured
var ErrNoDiscardRoot = errors.New("discard directory not configured")

type Options struct {
	// SegmentationsRoot anchors the relative layout reproduced under DiscardRoot
	SegmentationsRoot string
	DiscardRoot       string
	// AuditLog defaults to DefaultAuditLog
	AuditLog string
	// SeriesFiles lists the ordered slice files of a series; defaults to loader.SeriesFiles
	SeriesFiles func(dir string) ([]string, error)
	Now         func() time.Time
	Logger      logger.Logger
}

type Workflow struct {
	segRoot     string
	discardRoot string
	auditLog    string
	seriesFiles func(dir string) ([]string, error)
	now         func() time.Time
	logger      logger.Logger
}

func NewWorkflow(opts Options) *Workflow {
	w := &Workflow{
		segRoot:     opts.SegmentationsRoot,
		discardRoot: opts.DiscardRoot,
		auditLog:    opts.AuditLog,
		seriesFiles: opts.SeriesFiles,
		now:         opts.Now,
		logger:      logger.OrNop(opts.Logger),
	}
	if w.auditLog == "" {
		w.auditLog = DefaultAuditLog
	}
	if w.seriesFiles == nil {
		w.seriesFiles = loader.SeriesFiles
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// AuditLog returns the audit log location
func (w *Workflow) AuditLog() string {
	return w.auditLog
}

// Discard copies the segmentation of pair into the discard root and appends
// one audit record. For a series only the slice at sliceIndex is copied; the
// index is clamped into the series. The source files are never modified.
func (w *Workflow) Discard(pair models.Pair, sliceIndex int, comment string) error {
	if w.discardRoot == "" {
		return ErrNoDiscardRoot
	}

	src := pair.Segmentation.Path
	logged := src
	if isSeries(pair.Segmentation) {
		dir := seriesDir(pair.Segmentation)
		files, err := w.seriesFiles(dir)
		if err != nil {
			return fmt.Errorf("list series %s: %w", dir, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("list series %s: %w", dir, loader.ErrNotFound)
		}
		src = files[models.ClampIndex(sliceIndex, len(files))]
		logged = sliceName(w.relative(dir), src)
	}

	dst := filepath.Join(w.discardRoot, w.relative(src))
	if err := fsx.CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return w.record(pair.Original.Path, logged, comment, dst)
}

// DiscardPair moves the whole segmentation of pair, file or series directory,
// into the discard root and appends one audit record. An existing target is
// never overwritten.
func (w *Workflow) DiscardPair(pair models.Pair, comment string) error {
	if w.discardRoot == "" {
		return ErrNoDiscardRoot
	}

	src := pair.Segmentation.Path
	dst := filepath.Join(w.discardRoot, w.relative(src))
	if err := fsx.Move(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}

	return w.record(pair.Original.Path, src, comment, dst)
}

func (w *Workflow) record(original, segmentation, comment, dst string) error {
	rec := models.DiscardRecord{
		Timestamp:    w.now(),
		Original:     original,
		Segmentation: segmentation,
		Comment:      comment,
	}
	if err := AppendRecord(w.auditLog, rec); err != nil {
		return err
	}

	w.logger.Info("DiscardWorkflow", "segmentation discarded", map[string]interface{}{
		"original":     original,
		"segmentation": segmentation,
		"target":       dst,
	})
	return nil
}

// relative maps path to its location under the segmentations root, or to its
// base name when it lies outside that root.
func (w *Workflow) relative(path string) string {
	if w.segRoot != "" {
		rel, err := filepath.Rel(w.segRoot, path)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return filepath.Base(path)
}

// sliceName is the series directory joined with the slice file name, e.g. p1_seg/b.dcm
func sliceName(series, slice string) string {
	return filepath.Join(series, filepath.Base(slice))
}

func isSeries(item models.VolumeItem) bool {
	return item.IsSeriesDirectory || discovery.Classify(item.Path) == models.FormatDICOM
}

// a single slice file stands for the series in its directory
func seriesDir(item models.VolumeItem) string {
	if item.IsSeriesDirectory {
		return item.Path
	}
	return filepath.Dir(item.Path)
}
