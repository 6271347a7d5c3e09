package wmm

// legendreTable holds the unnormalized associated Legendre functions
// P(n,m) and their colatitude derivatives dP(n,m) for one evaluation.
// The table is scratch owned by a single Evaluate call; sharing it across
// evaluations would race, so it never lives on the Model.
type legendreTable struct {
	p  []float64 // P(n,m), triangular
	dp []float64 // dP(n,m)/dtheta, triangular
	pp []float64 // polar fallback recursion, by degree; filled when sin(theta) == 0
}

func newLegendreTable(maxDegree int) *legendreTable {
	return &legendreTable{
		p:  make([]float64, triSize(maxDegree)),
		dp: make([]float64, triSize(maxDegree)),
		pp: make([]float64, maxDegree+1),
	}
}

// compute fills the tables for colatitude trig values st = sin(theta),
// ct = cos(theta) using the standard three-term recursion with the model's
// precomputed K factors:
//
//	diagonal:  P(n,n) = st * P(n-1,n-1)
//	base:      P(1,0) = ct * P(0,0)
//	general:   P(n,m) = ct * P(n-1,m) - K(n,m) * P(n-2,m)
//
// where P(n-2,m) reads as zero outside the triangle. At the geographic
// poles (st == 0) the azimuthal term Bp/st is singular, so an auxiliary
// one-dimensional recursion over pp substitutes for the m = 1 column.
func (t *legendreTable) compute(maxDegree int, st, ct float64, k []float64) {
	t.p[0] = 1.0
	t.dp[0] = 0.0

	for n := 1; n <= maxDegree; n++ {
		for m := 0; m <= n; m++ {
			i := triIdx(n, m)
			switch {
			case n == m:
				prev := triIdx(n-1, m-1)
				t.p[i] = st * t.p[prev]
				t.dp[i] = st*t.dp[prev] + ct*t.p[prev]
			case n == 1 && m == 0:
				t.p[i] = ct * t.p[0]
				t.dp[i] = ct*t.dp[0] - st*t.p[0]
			default: // n > 1, n != m
				var p2, dp2 float64
				if m <= n-2 {
					p2 = t.p[triIdx(n-2, m)]
					dp2 = t.dp[triIdx(n-2, m)]
				}
				prev := triIdx(n-1, m)
				t.p[i] = ct*t.p[prev] - k[i]*p2
				t.dp[i] = ct*t.dp[prev] - st*t.p[prev] - k[i]*dp2
			}
		}
	}

	if st == 0.0 {
		t.pp[0] = 1.0
		if maxDegree >= 1 {
			t.pp[1] = t.pp[0]
		}
		for n := 2; n <= maxDegree; n++ {
			t.pp[n] = ct*t.pp[n-1] - k[triIdx(n, 1)]*t.pp[n-2]
		}
	}
}
