package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// SeriesFiles returns the slice files of the series in dir in presentation
// order: ascending InstanceNumber when every slice carries one, file name
// order otherwise.
func SeriesFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".dcm") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	sort.Strings(files)

	instances := make(map[string]int, len(files))
	for _, f := range files {
		ds, err := dicom.ParseFile(f, nil, dicom.SkipPixelData())
		if err != nil {
			return files, nil
		}
		n, ok := intValue(&ds, tag.InstanceNumber)
		if !ok {
			return files, nil
		}
		instances[f] = n
	}

	sort.SliceStable(files, func(i, j int) bool {
		return instances[files[i]] < instances[files[j]]
	})
	return files, nil
}

func readSeries(ctx context.Context, dir string) (*models.Volume, error) {
	files, err := SeriesFiles(dir)
	if err != nil {
		return nil, err
	}

	var (
		rows, cols int
		data       []float64
	)
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, c, pixels, err := readSlice(f)
		if err != nil {
			return nil, fmt.Errorf("slice %s: %w", filepath.Base(f), err)
		}
		if i == 0 {
			rows, cols = r, c
			data = make([]float64, 0, len(files)*r*c)
		} else if r != rows || c != cols {
			return nil, fmt.Errorf("slice %s is %dx%d, series is %dx%d", filepath.Base(f), r, c, rows, cols)
		}
		data = append(data, pixels...)
	}

	return &models.Volume{Shape: []int{len(files), rows, cols}, Data: data}, nil
}

// readSlice decodes the first frame of one DICOM file with modality rescale
// applied and MONOCHROME1 inverted.
func readSlice(path string) (int, int, []float64, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return 0, 0, nil, err
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return 0, 0, nil, err
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if len(info.Frames) == 0 {
		return 0, 0, nil, fmt.Errorf("no frames: %w", ErrNotFound)
	}
	if info.IsEncapsulated {
		return 0, 0, nil, fmt.Errorf("compressed pixel data: %w", ErrUnsupportedFormat)
	}

	fr := info.Frames[0]
	native, err := fr.GetNativeFrame()
	if err != nil {
		return 0, 0, nil, err
	}

	slope, intercept := 1.0, 0.0
	if v, ok := floatValue(&ds, tag.RescaleSlope); ok && v != 0 {
		slope = v
	}
	if v, ok := floatValue(&ds, tag.RescaleIntercept); ok {
		intercept = v
	}

	pixels := make([]float64, native.Rows*native.Cols)
	for i := range pixels {
		pixels[i] = float64(native.Data[i][0])*slope + intercept
	}

	if stringValue(&ds, tag.PhotometricInterpretation) == "MONOCHROME1" {
		invert(pixels)
	}
	return native.Rows, native.Cols, pixels, nil
}

func invert(pixels []float64) {
	if len(pixels) == 0 {
		return
	}
	lo, hi := pixels[0], pixels[0]
	for _, p := range pixels {
		lo, hi = min(lo, p), max(hi, p)
	}
	for i, p := range pixels {
		pixels[i] = hi + lo - p
	}
}

// first value of an element, whatever representation the parser chose for it
func firstValue(ds *dicom.Dataset, t tag.Tag) (interface{}, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil {
		return nil, false
	}
	switch v := el.Value.GetValue().(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0]), true
		}
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func stringValue(ds *dicom.Dataset, t tag.Tag) string {
	v, ok := firstValue(ds, t)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.ToUpper(s)
}

func floatValue(ds *dicom.Dataset, t tag.Tag) (float64, bool) {
	v, ok := firstValue(ds, t)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func intValue(ds *dicom.Dataset, t tag.Tag) (int, bool) {
	f, ok := floatValue(ds, t)
	return int(f), ok
}
