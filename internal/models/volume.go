package models

import "fmt"

// VolumeFormat identifies how a volume is stored on disk
type VolumeFormat int

const (
	FormatUnknown VolumeFormat = iota
	FormatDICOM                // one slice per file, grouped by directory
	FormatNIfTI                // .nii or .nii.gz
	FormatNPY                  // numpy raw array
)

func (f VolumeFormat) String() string {
	switch f {
	case FormatDICOM:
		return "dicom"
	case FormatNIfTI:
		return "nifti"
	case FormatNPY:
		return "npy"
	default:
		return "unknown"
	}
}

// VolumeItem is either a single-file volume or a directory holding one slice series.
//
// A series directory is always exactly one item; its children are never
// enumerated as separate volumes.
type VolumeItem struct {
	Path              string       `json:"path"`
	IsSeriesDirectory bool         `json:"is_series_directory"`
	Format            VolumeFormat `json:"-"`
}

// Pair associates an original volume with its segmentation
type Pair struct {
	Original     VolumeItem `json:"original"`
	Segmentation VolumeItem `json:"segmentation"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%s <-> %s", p.Original.Path, p.Segmentation.Path)
}

// Volume is a decoded 2D image or 3D slice stack in row-major order.
// For 3D volumes the first axis is the slice index.
type Volume struct {
	Path  string
	Shape []int
	Data  []float64

	// Min and Max hold the intensity range before normalization
	Min float64
	Max float64
}

// NDim returns the number of axes
func (v *Volume) NDim() int {
	return len(v.Shape)
}

// SliceCount returns the number of slices along the first axis; 2D volumes have one
func (v *Volume) SliceCount() int {
	if len(v.Shape) == 3 {
		return v.Shape[0]
	}
	if len(v.Shape) == 2 {
		return 1
	}
	return 0
}

// Rows returns the height of one slice
func (v *Volume) Rows() int {
	if len(v.Shape) < 2 {
		return 0
	}
	return v.Shape[len(v.Shape)-2]
}

// Cols returns the width of one slice
func (v *Volume) Cols() int {
	if len(v.Shape) < 2 {
		return 0
	}
	return v.Shape[len(v.Shape)-1]
}

// Slice returns the pixels of slice index, clamped into range. The result aliases Data.
func (v *Volume) Slice(index int) []float64 {
	n := v.SliceCount()
	if n == 0 {
		return nil
	}
	index = ClampIndex(index, n)
	size := v.Rows() * v.Cols()
	return v.Data[index*size : (index+1)*size]
}

// ClampIndex clamps i into [0, n-1]; n must be positive
func ClampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
