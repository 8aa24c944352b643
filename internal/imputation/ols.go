package imputation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// fitOLS solves y = b0 + b1*x1 + ... by least squares over rows using a QR
// factorization of the design matrix. The returned slice starts with the
// intercept.
func fitOLS(X [][]float64, y []float64, rows []int) ([]float64, error) {
	p := len(X) + 1
	design := mat.NewDense(len(rows), p, nil)
	response := mat.NewDense(len(rows), 1, nil)
	for r, i := range rows {
		design.Set(r, 0, 1)
		for j, x := range X {
			design.Set(r, j+1, x[i])
		}
		response.Set(r, 0, y[i])
	}

	var qr mat.QR
	qr.Factorize(design)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, response); err != nil {
		return nil, fmt.Errorf("least squares: %w", err)
	}

	out := make([]float64, p)
	for j := range out {
		out[j] = beta.At(j, 0)
	}
	return out, nil
}

func predict(beta []float64, X [][]float64, row int) float64 {
	v := beta[0]
	for j, x := range X {
		v += beta[j+1] * x[row]
	}
	return v
}
