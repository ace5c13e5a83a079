// Package hpdi computes the highest-posterior-density interval of a Gamma
// distribution.
//
// The HPDI of coverage p is the interval [lo, hi] that satisfies
//
//	CDF(hi) - CDF(lo) = p      (coverage)
//	f(lo)   = f(hi)            (equal density)
//
// There is no closed form, so the pair of equations is solved by a damped
// Newton iteration seeded with the equal-tailed interval. If X ~ Gamma(α, β)
// then βX ~ Gamma(α, 1), so the solve runs on the standard Gamma and the
// bounds are divided by β at the end. The unknowns are u = log lo and
// w = log hi, and the equal-density equation needs no normalising constants:
//
//	(α-1)·(u-w) - (e^u - e^w) = 0
//
// For shapes just above one the lower bound sits many orders of magnitude
// below the mode; in log space it is still an ordinary value.
//
// When the density is monotone decreasing (shape <= 1) there is no interior
// solution. The interval is then one-sided, [0, Q(p)]; BoundaryReanchor
// solves it that way, while BoundaryReject reports a degenerate interval and
// lets the caller decide. The same applies when lo underflows float64.
//
// A Solver holds only configuration; Solve is safe for concurrent use.
package hpdi
