package searcher

import "math"

// uct scores children of a node visited N times:
//
//	UCT = q/n + beta*sqrt(2*ln(N)/n)
type uct struct {
	beta      float64
	numerator float64
}

func newUCT(beta float64, N int) uct {
	if N == 0 {
		panic("N cannot be 0")
	}
	return uct{beta: beta, numerator: 2 * math.Log(float64(N))}
}

func (u uct) evaluate(q float64, n int) float64 {
	if n == 0 {
		panic("n cannot be 0")
	}
	return q/float64(n) + u.beta*math.Sqrt(u.numerator/float64(n))
}
