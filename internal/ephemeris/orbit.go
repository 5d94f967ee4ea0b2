package ephemeris

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	gm              = 3.986005e14   // WGS-84 earth gravitational constant, m^3/s^2
	earthRotation   = 7.2921151467e-5 // WGS-84 earth rotation rate, rad/s
	halfWeekSeconds = 302400.0
	weekSeconds     = 604800.0

	keplerTolerance  = 1e-9
	keplerMaxIters   = 50
)

// ErrKepler means the eccentric-anomaly Newton iteration failed to
// converge within keplerMaxIters steps, or produced a non-finite value.
type ErrKepler struct {
	Iterations int
}

func (e *ErrKepler) Error() string {
	return fmt.Sprintf("ephemeris: kepler solver did not converge after %d iterations", e.Iterations)
}

// OrbitalElements is a completed GPS broadcast ephemeris: the 16 scalars
// carried jointly by a matched (subframe 2, subframe 3) pair, with equal
// IODE. It is immutable once built.
type OrbitalElements struct {
	M0         float64
	DeltaN     float64
	E          float64
	SqrtA      float64
	Omega0     float64
	I0         float64
	OmegaSmall float64
	OmegaDot   float64
	IDot       float64
	CUc        float64
	CUs        float64
	CRc        float64
	CRs        float64
	CIc        float64
	CIs        float64
	TOE        uint32
}

// Position evaluates this element set at GPS time t (seconds) using the
// ICD-GPS-200 §20.3.3.4.3 Kepler orbit propagation, returning the
// satellite's ECEF position in meters.
func (oe OrbitalElements) Position(t float64) (r3.Vec, error) {
	tow := math.Mod(t, weekSeconds)
	tk := tow - float64(oe.TOE)
	if tk > halfWeekSeconds {
		tk -= weekSeconds
	} else if tk < -halfWeekSeconds {
		tk += weekSeconds
	}

	a := oe.SqrtA * oe.SqrtA
	n0 := math.Sqrt(gm / (a * a * a))
	n := n0 + oe.DeltaN
	mk := oe.M0 + n*tk

	ecc, err := solveKepler(mk, oe.E)
	if err != nil {
		return r3.Vec{}, err
	}

	trueAnomaly := 2 * math.Atan(math.Sqrt((1+oe.E)/(1-oe.E))*math.Tan(ecc/2))

	phiK := trueAnomaly + oe.OmegaSmall
	sin2phi, cos2phi := math.Sincos(2 * phiK)

	deltaUk := oe.CUs*sin2phi + oe.CUc*cos2phi
	deltaRk := oe.CRs*sin2phi + oe.CRc*cos2phi
	deltaIk := oe.CIs*sin2phi + oe.CIc*cos2phi

	uk := phiK + deltaUk
	rk := a*(1-oe.E*math.Cos(ecc)) + deltaRk
	ik := oe.I0 + deltaIk + oe.IDot*tk

	xkPrime := rk * math.Cos(uk)
	ykPrime := rk * math.Sin(uk)

	omegaK := oe.Omega0 + (oe.OmegaDot-earthRotation)*tk - earthRotation*float64(oe.TOE)
	sinOmegaK, cosOmegaK := math.Sincos(omegaK)
	cosIk := math.Cos(ik)

	x := xkPrime*cosOmegaK - ykPrime*sinOmegaK*cosIk
	y := xkPrime*sinOmegaK + ykPrime*cosOmegaK*cosIk
	z := ykPrime * math.Sin(ik)

	return r3.Vec{X: x, Y: y, Z: z}, nil
}

// solveKepler finds the eccentric anomaly E satisfying E - e*sin(E) = mk
// by Newton iteration from E0 = mk, terminating when the relative step
// size falls below keplerTolerance. GPS eccentricities are small enough
// (e < 0.02) that this converges within a handful of iterations.
func solveKepler(mk, e float64) (float64, error) {
	ecc := mk
	for i := 0; i < keplerMaxIters; i++ {
		next := ecc + (mk-ecc-e*math.Sin(ecc))/(1-e*math.Cos(ecc))
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, &ErrKepler{Iterations: i}
		}
		if ecc != 0 && math.Abs((next-ecc)/ecc) < keplerTolerance {
			return next, nil
		}
		ecc = next
	}
	return 0, &ErrKepler{Iterations: keplerMaxIters}
}
