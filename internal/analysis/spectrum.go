package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

var ErrTooShort = errors.New("analysis: series too short")

// PowerSpectrum returns the magnitude of the real FFT of data with its mean
// removed. Entry i corresponds to i/(len(data)*dt) Hz.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	centred := make([]float64, len(data))
	copy(centred, data)
	floats.AddConst(-floats.Sum(centred)/float64(len(centred)), centred)

	coeff := fft.FFTReal(centred)
	ps := make([]float64, len(centred)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeff[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// spectral line of a series sampled every dt seconds, with its magnitude.
func DominantFrequency(data []float64, dt float64) (float64, float64, error) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, 0, ErrTooShort
	}
	idx := floats.MaxIdx(ps[1:]) + 1
	return float64(idx) / (float64(len(data)) * dt), ps[idx], nil
}
