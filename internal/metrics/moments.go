package metrics

import "math"

// moments streams central moments through M4 using Welford's single-pass
// update, avoiding the precision loss of sum-then-divide over large counts.
type moments struct {
	n    int
	mean float64
	m2   float64
	m3   float64
	m4   float64
}

func (m *moments) add(x float64) {
	n1 := float64(m.n)
	m.n++
	n := float64(m.n)

	delta := x - m.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1

	m.mean += deltaN
	m.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*m.m2 - 4*deltaN*m.m3
	m.m3 += term1*deltaN*(n-2) - 3*deltaN*m.m2
	m.m2 += term1
}

// variance is the population variance.
func (m *moments) variance() float64 {
	if m.n < 2 {
		return 0
	}
	return m.m2 / float64(m.n)
}

func (m *moments) skewness() float64 {
	if m.n < 2 || m.m2 == 0 {
		return 0
	}
	return math.Sqrt(float64(m.n)) * m.m3 / math.Pow(m.m2, 1.5)
}

// kurtosis is excess kurtosis (normal distribution scores 0).
func (m *moments) kurtosis() float64 {
	if m.n < 2 || m.m2 == 0 {
		return 0
	}
	return float64(m.n)*m.m4/(m.m2*m.m2) - 3
}
