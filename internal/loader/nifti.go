package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// NIfTI-1 header layout
const (
	niftiHeaderSize = 348
	offDim          = 40
	offDatatype     = 70
	offBitpix       = 72
	offVoxOffset    = 108
	offSclSlope     = 112
	offSclInter     = 116
)

// NIfTI-1 datatype codes
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
	dtInt64   = 1024
	dtUint64  = 1280
)

type niftiHeader struct {
	order     binary.ByteOrder
	dims      []int
	datatype  int16
	bitpix    int16
	voxOffset int64
	slope     float32
	inter     float32
}

func readNIfTI(path string) (*models.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return decodeNIfTI(r)
}

func decodeNIfTI(r io.Reader) (*models.Volume, error) {
	raw := make([]byte, niftiHeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read nifti header: %w", err)
	}
	hdr, err := parseNIfTIHeader(raw)
	if err != nil {
		return nil, err
	}

	// skip extensions up to the voxel data
	if skip := hdr.voxOffset - niftiHeaderSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("seek voxel data: %w", err)
		}
	}

	nx, ny, nz := hdr.dims[0], hdr.dims[1], 1
	if len(hdr.dims) > 2 {
		nz = hdr.dims[2]
	}
	// only the first volume of a time series is read
	count := nx * ny * nz

	voxels, err := readVoxels(r, hdr, count)
	if err != nil {
		return nil, err
	}
	if hdr.slope != 0 && !(hdr.slope == 1 && hdr.inter == 0) {
		s, b := float64(hdr.slope), float64(hdr.inter)
		for i, v := range voxels {
			voxels[i] = v*s + b
		}
	}

	flipRows(voxels, nz, ny, nx)

	shape := []int{nz, ny, nx}
	if nz == 1 {
		shape = []int{ny, nx}
	}
	return &models.Volume{Shape: shape, Data: voxels}, nil
}

func parseNIfTIHeader(raw []byte) (*niftiHeader, error) {
	hdr := &niftiHeader{order: binary.LittleEndian}
	if int32(hdr.order.Uint32(raw[0:4])) != niftiHeaderSize {
		hdr.order = binary.BigEndian
		if int32(hdr.order.Uint32(raw[0:4])) != niftiHeaderSize {
			return nil, fmt.Errorf("not a NIfTI-1 header: %w", ErrUnsupportedFormat)
		}
	}

	ndim := int(int16(hdr.order.Uint16(raw[offDim:])))
	if ndim < 2 || ndim > 7 {
		return nil, fmt.Errorf("nifti dim[0]=%d: %w", ndim, ErrUnsupportedFormat)
	}
	for i := 1; i <= ndim; i++ {
		n := int(int16(hdr.order.Uint16(raw[offDim+2*i:])))
		if n < 1 {
			n = 1
		}
		hdr.dims = append(hdr.dims, n)
	}

	hdr.datatype = int16(hdr.order.Uint16(raw[offDatatype:]))
	hdr.bitpix = int16(hdr.order.Uint16(raw[offBitpix:]))
	hdr.voxOffset = int64(math.Float32frombits(hdr.order.Uint32(raw[offVoxOffset:])))
	hdr.slope = math.Float32frombits(hdr.order.Uint32(raw[offSclSlope:]))
	hdr.inter = math.Float32frombits(hdr.order.Uint32(raw[offSclInter:]))
	return hdr, nil
}

func readVoxels(r io.Reader, hdr *niftiHeader, count int) ([]float64, error) {
	switch hdr.datatype {
	case dtUint8:
		return readAs[uint8](r, hdr.order, count)
	case dtInt8:
		return readAs[int8](r, hdr.order, count)
	case dtInt16:
		return readAs[int16](r, hdr.order, count)
	case dtUint16:
		return readAs[uint16](r, hdr.order, count)
	case dtInt32:
		return readAs[int32](r, hdr.order, count)
	case dtUint32:
		return readAs[uint32](r, hdr.order, count)
	case dtInt64:
		return readAs[int64](r, hdr.order, count)
	case dtUint64:
		return readAs[uint64](r, hdr.order, count)
	case dtFloat32:
		return readAs[float32](r, hdr.order, count)
	case dtFloat64:
		out := make([]float64, count)
		if err := binary.Read(r, hdr.order, out); err != nil {
			return nil, fmt.Errorf("read voxels: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("nifti datatype %d (bitpix %d): %w", hdr.datatype, hdr.bitpix, ErrUnsupportedFormat)
}

func readAs[T number](r io.Reader, order binary.ByteOrder, count int) ([]float64, error) {
	buf := make([]T, count)
	if err := binary.Read(r, order, buf); err != nil {
		return nil, fmt.Errorf("read voxels: %w", err)
	}
	return widen(buf), nil
}

// flipRows mirrors every slice vertically so the first row is displayed on top
func flipRows(data []float64, slices, rows, cols int) {
	for s := 0; s < slices; s++ {
		base := s * rows * cols
		for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
			a := data[base+top*cols : base+(top+1)*cols]
			b := data[base+bottom*cols : base+(bottom+1)*cols]
			for i := range a {
				a[i], b[i] = b[i], a[i]
			}
		}
	}
}
