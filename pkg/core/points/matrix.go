package points

import (
	"gonum.org/v1/gonum/mat"
)

// FromMatrix copies an n×dims Gonum matrix (one point per row) into a Dense set.
func FromMatrix(m mat.Matrix) *Dense {
	r, c := m.Dims()
	data := make([]float64, r*c)
	if raw, ok := m.(mat.RawMatrixer); ok {
		rm := raw.RawMatrix()
		for i := 0; i < r; i++ {
			copy(data[i*c:(i+1)*c], rm.Data[i*rm.Stride:i*rm.Stride+c])
		}
		return &Dense{data: data, dims: c}
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = m.At(i, j)
		}
	}
	return &Dense{data: data, dims: c}
}

// Matrix returns a Gonum view of d sharing its storage.
func (d *Dense) Matrix() *mat.Dense {
	return mat.NewDense(d.Len(), d.dims, d.data)
}
