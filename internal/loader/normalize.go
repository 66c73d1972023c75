package loader

import (
	"gonum.org/v1/gonum/floats"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// Normalize returns a copy of v rescaled into [0, 1] together with the
// original minimum and maximum. A constant volume maps to all zeros.
func Normalize(v *models.Volume) (*models.Volume, float64, float64) {
	out := &models.Volume{
		Path:  v.Path,
		Shape: append([]int(nil), v.Shape...),
		Data:  make([]float64, len(v.Data)),
	}
	if len(v.Data) == 0 {
		return out, 0, 0
	}

	lo, hi := floats.Min(v.Data), floats.Max(v.Data)
	out.Min, out.Max = lo, hi
	if hi-lo == 0 {
		return out, lo, hi
	}

	copy(out.Data, v.Data)
	floats.AddConst(-lo, out.Data)
	floats.Scale(1/(hi-lo), out.Data)
	return out, lo, hi
}
