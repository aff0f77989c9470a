// Package significance decides where cluster boundaries fall in a ranking
// using pairwise rank-sum tests.
package significance

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactMaxSize is the largest sample size for which the exact U
// distribution is used (when the other sample may be larger and there are
// no ties).
const exactMaxSize = 8

// Method selects how the p-value of a Mann-Whitney U test is computed.
type Method int

const (
	// MethodAuto uses the exact distribution when either sample has at most
	// eight values and there are no ties, the normal approximation otherwise.
	MethodAuto Method = iota
	// MethodExact enumerates the null distribution of U. Ties are not
	// supported and fall back to the approximation.
	MethodExact
	// MethodAsymptotic uses the tie-corrected normal approximation with
	// continuity correction.
	MethodAsymptotic
)

func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodExact:
		return "exact"
	case MethodAsymptotic:
		return "asymptotic"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// Result is the outcome of a two-sided Mann-Whitney U test.
type Result struct {
	U1     float64 // U statistic of the first sample
	U2     float64 // U statistic of the second sample, n1*n2 - U1
	P      float64 // two-sided p-value in [0, 1]
	Method Method  // method actually used
}

// MannWhitneyU runs a two-sided Mann-Whitney U test of x against y.
func MannWhitneyU(x, y []float64) (Result, error) {
	return MannWhitneyUWith(x, y, MethodAuto)
}

// MannWhitneyUWith runs the test with an explicit p-value method.
func MannWhitneyUWith(x, y []float64, method Method) (Result, error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return Result{}, fmt.Errorf("mann-whitney u: %w (sizes %d and %d)", ErrEmptySample, n1, n2)
	}

	ranks, ties := rankData(x, y)
	r1 := 0.0
	for _, r := range ranks[:n1] {
		r1 += r
	}
	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1
	u := math.Max(u1, u2)

	hasTies := false
	for _, t := range ties {
		if t > 1 {
			hasTies = true
			break
		}
	}
	if method == MethodAuto {
		method = MethodExact
		if hasTies || (n1 > exactMaxSize && n2 > exactMaxSize) {
			method = MethodAsymptotic
		}
	}
	if method == MethodExact && hasTies {
		method = MethodAsymptotic
	}

	var p float64
	if method == MethodExact {
		p = 2 * exactSurvival(int(math.Round(u)), n1, n2)
	} else {
		p = 2 * asymptoticSurvival(u, n1, n2, ties)
	}
	return Result{U1: u1, U2: u2, P: math.Min(math.Max(p, 0), 1), Method: method}, nil
}

// rankData assigns 1-based ranks to the concatenation of x and y, averaging
// ranks over ties. It also returns the size of every tie group.
func rankData(x, y []float64) ([]float64, []int) {
	n := len(x) + len(y)
	values := make([]float64, 0, n)
	values = append(values, x...)
	values = append(values, y...)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, n)
	var ties []int
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		ties = append(ties, j-i+1)
		i = j + 1
	}
	return ranks, ties
}

// asymptoticSurvival returns P(U >= u) under the normal approximation with
// tie and continuity corrections.
func asymptoticSurvival(u float64, n1, n2 int, ties []int) float64 {
	n := float64(n1 + n2)
	tieTerm := 0.0
	for _, t := range ties {
		ft := float64(t)
		tieTerm += ft*ft*ft - ft
	}
	prod := float64(n1) * float64(n2)
	variance := prod / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 || math.IsNaN(variance) {
		// Every value tied: no evidence either way.
		return 0.5
	}
	z := (u - prod/2 - 0.5) / math.Sqrt(variance)
	return distuv.UnitNormal.Survival(z)
}

// exactSurvival returns P(U >= u) for samples of sizes n1 and n2 without
// ties, from the coefficients of the Gaussian binomial [n1+n2 choose n1]_q.
func exactSurvival(u, n1, n2 int) float64 {
	m, n := n1, n2
	if m > n {
		m, n = n, m
	}
	maxU := m * n
	if u <= 0 {
		return 1
	}
	if u > maxU {
		return 0
	}
	counts := uDistribution(m, n)
	total := 0.0
	for _, c := range counts {
		total += c
	}
	// The distribution is symmetric, P(U >= u) = P(U <= maxU-u); summing the
	// low tail keeps the small terms accurate.
	tail := 0.0
	for k := 0; k <= maxU-u; k++ {
		tail += counts[k]
	}
	return tail / total
}

// uDistribution returns, for k = 0..m*n, the number of arrangements of m and
// n distinct values with U = k.
func uDistribution(m, n int) []float64 {
	size := m*n + m + 1
	c := make([]float64, size)
	c[0] = 1
	deg := 0
	for i := 1; i <= m; i++ {
		step := n + i
		for k := deg + step; k >= step; k-- {
			c[k] -= c[k-step]
		}
		deg += n
		for k := i; k <= deg; k++ {
			c[k] += c[k-i]
		}
		// Above deg the exact quotient is zero.
		for k := deg + 1; k < size; k++ {
			c[k] = 0
		}
	}
	return c[:m*n+1]
}
