// Package loader decodes volume files into models.Volume values whose first
// axis is the slice index and whose slices are ready for display.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/discovery"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

var (
	// ErrNotFound is returned when a series directory holds no slice files
	ErrNotFound = errors.New("no slice files found")
	// ErrUnsupportedFormat is returned for paths whose extension no decoder handles
	ErrUnsupportedFormat = errors.New("unsupported volume format")
)

// Loader decodes the volume stored at path
type Loader interface {
	Load(ctx context.Context, path string) (*models.Volume, error)
}

// Dispatcher picks a decoder from the path's format. Directories and single
// .dcm files are read as a slice series.
type Dispatcher struct{}

func New() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Load(ctx context.Context, path string) (*models.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var vol *models.Volume
	switch {
	case info.IsDir():
		vol, err = readSeries(ctx, path)
	default:
		switch discovery.Classify(path) {
		case models.FormatDICOM:
			vol, err = readSeries(ctx, filepath.Dir(path))
		case models.FormatNIfTI:
			vol, err = readNIfTI(path)
		case models.FormatNPY:
			vol, err = readNPY(path)
		default:
			return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	vol.Path = path
	return vol, nil
}

// squeeze drops unit axes until the shape is at most three dimensional
func squeeze(shape []int) ([]int, error) {
	out := append([]int(nil), shape...)
	for len(out) > 3 {
		i := indexOfOne(out)
		if i < 0 {
			return nil, fmt.Errorf("shape %v has more than three non-unit axes: %w", shape, ErrUnsupportedFormat)
		}
		out = append(out[:i], out[i+1:]...)
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("shape %v is not an image: %w", shape, ErrUnsupportedFormat)
	}
	return out, nil
}

func indexOfOne(shape []int) int {
	for i, n := range shape {
		if n == 1 {
			return i
		}
	}
	return -1
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
