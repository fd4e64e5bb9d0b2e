package tracking

import (
	"gonum.org/v1/gonum/mat"
)

const (
	initialVariance = 1000.0
	processNoise    = 0.5
	measureNoise    = 10.0
)

// KalmanFilter is a constant-velocity filter over a box center. One step is
// one frame, so velocities are in pixels per frame.
//
// State is [cx, cy, vx, vy].
type KalmanFilter struct {
	x *mat.VecDense
	p *mat.Dense
	f *mat.Dense
	q *mat.Dense
	h *mat.Dense
	r *mat.Dense

	initialized bool
}

// NewKalmanFilter returns an uninitialized filter; the first Update seeds it.
func NewKalmanFilter() *KalmanFilter {
	kf := &KalmanFilter{
		x: mat.NewVecDense(4, nil),
		f: mat.NewDense(4, 4, []float64{
			1, 0, 1, 0,
			0, 1, 0, 1,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}),
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		r: mat.NewDense(2, 2, []float64{
			measureNoise, 0,
			0, measureNoise,
		}),
	}

	// Discrete white-noise acceleration with dt = 1.
	q := processNoise
	kf.q = mat.NewDense(4, 4, []float64{
		q / 4, 0, q / 2, 0,
		0, q / 4, 0, q / 2,
		q / 2, 0, q, 0,
		0, q / 2, 0, q,
	})
	kf.Reset()
	return kf
}

// Predict advances the state by one frame and returns the predicted center.
func (kf *KalmanFilter) Predict() (float64, float64) {
	if !kf.initialized {
		return 0, 0
	}

	var x mat.VecDense
	x.MulVec(kf.f, kf.x)
	kf.x = &x

	// P = F * P * F' + Q
	var fp, p mat.Dense
	fp.Mul(kf.f, kf.p)
	p.Mul(&fp, kf.f.T())
	p.Add(&p, kf.q)
	kf.p = &p

	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// Update corrects the state with a measured center and returns the filtered
// center.
func (kf *KalmanFilter) Update(cx, cy float64) (float64, float64) {
	if !kf.initialized {
		kf.x = mat.NewVecDense(4, []float64{cx, cy, 0, 0})
		kf.initialized = true
		return cx, cy
	}

	z := mat.NewVecDense(2, []float64{cx, cy})
	var hx, innovation mat.VecDense
	hx.MulVec(kf.h, kf.x)
	innovation.SubVec(z, &hx)

	// S = H * P * H' + R
	var hp, s mat.Dense
	hp.Mul(kf.h, kf.p)
	s.Mul(&hp, kf.h.T())
	s.Add(&s, kf.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// Singular innovation covariance; trust the measurement.
		kf.x.SetVec(0, cx)
		kf.x.SetVec(1, cy)
		return cx, cy
	}

	// K = P * H' * inv(S)
	var pht, k mat.Dense
	pht.Mul(kf.p, kf.h.T())
	k.Mul(&pht, &sInv)

	var correction, x mat.VecDense
	correction.MulVec(&k, &innovation)
	x.AddVec(kf.x, &correction)
	kf.x = &x

	// P = (I - K*H) * P
	var kh, ikh, p mat.Dense
	kh.Mul(&k, kf.h)
	ikh.Sub(identity4(), &kh)
	p.Mul(&ikh, kf.p)
	kf.p = &p

	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// Position returns the current center estimate.
func (kf *KalmanFilter) Position() (float64, float64) {
	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// Velocity returns the current velocity estimate in pixels per frame.
func (kf *KalmanFilter) Velocity() (float64, float64) {
	return kf.x.AtVec(2), kf.x.AtVec(3)
}

// Initialized reports whether the filter has seen a measurement.
func (kf *KalmanFilter) Initialized() bool {
	return kf.initialized
}

// Reset clears the state and restores the initial covariance.
func (kf *KalmanFilter) Reset() {
	kf.initialized = false
	kf.x = mat.NewVecDense(4, nil)
	kf.p = mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		kf.p.Set(i, i, initialVariance)
	}
}

func identity4() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}
