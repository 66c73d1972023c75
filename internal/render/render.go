// Package render turns normalized volume slices into display images using OpenCV.
package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

const DefaultOverlayAlpha = 0.4

// ErrShapeMismatch is returned when a mask slice does not match its image slice
var ErrShapeMismatch = errors.New("mask and image slices differ in size")

// Display holds the reviewer's presentation preferences. Brightness and
// Contrast live in [0, 1] with 0.5 as the neutral setting.
type Display struct {
	Brightness   float64
	Contrast     float64
	OverlayAlpha float64
}

// DisplayFromSettings extracts the display preferences from settings
func DisplayFromSettings(s models.Settings) Display {
	return Display{Brightness: s.Brightness, Contrast: s.Contrast, OverlayAlpha: DefaultOverlayAlpha}
}

// levels maps the display settings onto the linear transform applied to a
// normalized pixel before it is saturated to 8 bits.
func (d Display) levels() (alpha, beta float64) {
	return 255 * 2 * d.Contrast, (d.Brightness - 0.5) * 255
}

// SliceImage renders slice index of vol as a grayscale image
func SliceImage(vol *models.Volume, index int, d Display) (image.Image, error) {
	gray, err := grayMat(vol, index, d)
	if err != nil {
		return nil, err
	}
	defer gray.Close()
	return gray.ToImage()
}

// OverlayImage renders slice index of orig with the matching mask slice
// blended on top in a colour map. Only pixels where the mask is non-zero are tinted.
func OverlayImage(orig, mask *models.Volume, index int, d Display) (image.Image, error) {
	if orig.Rows() != mask.Rows() || orig.Cols() != mask.Cols() {
		return nil, fmt.Errorf("%dx%d vs %dx%d: %w", orig.Rows(), orig.Cols(), mask.Rows(), mask.Cols(), ErrShapeMismatch)
	}

	base, err := grayMat(orig, index, d)
	if err != nil {
		return nil, err
	}
	defer base.Close()

	labels, err := grayMat(mask, index, Display{Brightness: 0.5, Contrast: 0.5})
	if err != nil {
		return nil, err
	}
	defer labels.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(base, &bgr, gocv.ColorGrayToBGR)

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.ApplyColorMap(labels, &colored, gocv.ColormapJet)

	alpha := d.OverlayAlpha
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultOverlayAlpha
	}
	blended := gocv.NewMat()
	defer blended.Close()
	gocv.AddWeighted(bgr, 1-alpha, colored, alpha, 0, &blended)

	region := gocv.NewMat()
	defer region.Close()
	gocv.Threshold(labels, &region, 0, 255, gocv.ThresholdBinary)

	blended.CopyToWithMask(&bgr, region)
	return bgr.ToImage()
}

// grayMat builds an 8-bit single channel Mat for one slice; the caller closes it
func grayMat(vol *models.Volume, index int, d Display) (gocv.Mat, error) {
	rows, cols := vol.Rows(), vol.Cols()
	if err := validateDimensions(cols, rows); err != nil {
		return gocv.Mat{}, err
	}

	src, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV32F, float32Bytes(vol.Slice(index)))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("slice to mat: %w", err)
	}
	defer src.Close()

	alpha, beta := d.levels()
	dst := gocv.NewMat()
	src.ConvertToWithParams(&dst, gocv.MatTypeCV8U, float32(alpha), float32(beta))
	return dst, nil
}

func float32Bytes(values []float64) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.NativeEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	return buf
}

func validateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid slice dimensions %dx%d", width, height)
	}
	if width > 32768 || height > 32768 {
		return fmt.Errorf("slice dimensions %dx%d exceed maximum size", width, height)
	}
	return nil
}
