package vecindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/poiesic/corpuskit/core"
)

// MatrixWriter appends embedding rows to a pre-sized on-disk matrix. The
// file holds rows*dim little-endian float32 values, row-major, no header;
// the descriptor carries the shape.
type MatrixWriter struct {
	f       *os.File
	w       *bufio.Writer
	rows    int
	dim     int
	written int
}

// CreateMatrix creates the matrix file for a known row count and
// dimensionality. Pre-sizing makes a short write detectable at Close.
func CreateMatrix(path string, rows, dim int) (*MatrixWriter, error) {
	if rows <= 0 || dim <= 0 {
		return nil, fmt.Errorf("invalid matrix shape %dx%d", rows, dim)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(rows) * int64(dim) * 4); err != nil {
		f.Close()
		return nil, err
	}

	return &MatrixWriter{
		f:    f,
		w:    bufio.NewWriterSize(f, 1<<20),
		rows: rows,
		dim:  dim,
	}, nil
}

// Append writes vectors as the next matrix rows. Every vector must have
// the matrix dimensionality.
func (mw *MatrixWriter) Append(vectors [][]float32) error {
	buf := make([]byte, 4)
	for _, vec := range vectors {
		if len(vec) != mw.dim {
			return fmt.Errorf("vector dim %d does not match matrix dim %d", len(vec), mw.dim)
		}
		if mw.written >= mw.rows {
			return fmt.Errorf("matrix full: %d rows", mw.rows)
		}
		for _, val := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(val))
			if _, err := mw.w.Write(buf); err != nil {
				return err
			}
		}
		mw.written++
	}
	return nil
}

// Written returns the number of rows appended so far.
func (mw *MatrixWriter) Written() int {
	return mw.written
}

// Close flushes and closes the matrix. It fails when fewer rows were
// appended than the matrix was sized for, which would leave zero rows the
// metadata store knows nothing about.
func (mw *MatrixWriter) Close() error {
	if err := mw.w.Flush(); err != nil {
		mw.f.Close()
		return err
	}
	if err := mw.f.Close(); err != nil {
		return err
	}
	if mw.written != mw.rows {
		return fmt.Errorf("matrix has %d of %d rows: %w", mw.written, mw.rows, core.ErrIndexIncomplete)
	}
	return nil
}

// Matrix reads an on-disk embedding matrix in row chunks.
type Matrix struct {
	f    *os.File
	rows int
	dim  int
}

// OpenMatrix opens a matrix file and verifies its size against the
// expected shape.
func OpenMatrix(path string, rows, dim int) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", MatrixName, core.ErrIndexIncomplete)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if want := int64(rows) * int64(dim) * 4; info.Size() != want {
		f.Close()
		return nil, fmt.Errorf("matrix is %d bytes, want %d: %w", info.Size(), want, core.ErrIndexIncomplete)
	}

	return &Matrix{f: f, rows: rows, dim: dim}, nil
}

// Rows returns the matrix row count.
func (m *Matrix) Rows() int {
	return m.rows
}

// Dim returns the matrix dimensionality.
func (m *Matrix) Dim() int {
	return m.dim
}

// ReadRows reads count rows starting at row start. The returned slice
// holds count*dim values and aliases buf when it is large enough.
func (m *Matrix) ReadRows(start, count int, buf []float32) ([]float32, error) {
	if start < 0 || count < 0 || start+count > m.rows {
		return nil, fmt.Errorf("row range [%d,%d) outside matrix of %d rows", start, start+count, m.rows)
	}

	values := count * m.dim
	if cap(buf) < values {
		buf = make([]float32, values)
	}
	buf = buf[:values]

	raw := make([]byte, values*4)
	if _, err := m.f.ReadAt(raw, int64(start)*int64(m.dim)*4); err != nil {
		return nil, err
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return buf, nil
}

// Close closes the matrix file.
func (m *Matrix) Close() error {
	return m.f.Close()
}
