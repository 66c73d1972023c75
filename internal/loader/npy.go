package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/sbinet/npyio"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

func readNPY(path string) (*models.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("npy header: %w", err)
	}

	shape, err := squeeze(r.Header.Descr.Shape)
	if err != nil {
		return nil, err
	}

	data, err := readNPYData(r, r.Header.Descr.Type)
	if err != nil {
		return nil, err
	}
	if want := product(shape); len(data) != want {
		return nil, fmt.Errorf("npy holds %d values, shape %v needs %d", len(data), shape, want)
	}
	if r.Header.Descr.Fortran {
		data = fortranToC(data, shape)
	}
	return &models.Volume{Shape: shape, Data: data}, nil
}

// readNPYData decodes into the array's own element type and widens to float64
func readNPYData(r *npyio.Reader, dtype string) ([]float64, error) {
	// byte order is handled by the reader
	kind := strings.TrimLeft(dtype, "<>|=")

	switch kind {
	case "f8":
		var v []float64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "f4":
		var v []float32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i1":
		var v []int8
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "u1":
		var v []uint8
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i2":
		var v []int16
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "u2":
		var v []uint16
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i4":
		var v []int32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "u4":
		var v []uint32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i8":
		var v []int64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "u8":
		var v []uint64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "b1":
		var v []bool
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, b := range v {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("npy dtype %q: %w", dtype, ErrUnsupportedFormat)
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32
}

func widen[T number](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// fortranToC reorders column-major data into row-major order
func fortranToC(data []float64, shape []int) []float64 {
	out := make([]float64, len(data))
	idx := make([]int, len(shape))
	for c := range out {
		// c walks row-major; compute the column-major offset of the same index
		f, stride := 0, 1
		for d := 0; d < len(shape); d++ {
			f += idx[d] * stride
			stride *= shape[d]
		}
		out[c] = data[f]

		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}
