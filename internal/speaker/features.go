package speaker

import "math"

const (
	// nfft is the FFT size used for the per-frame power spectrum.
	nfft = 512

	// numBands is the number of equal-width frequency bands whose energies
	// enter the feature vector.
	numBands = 8

	// rolloffFraction is the cumulative-energy fraction for the spectral
	// rolloff frequency.
	rolloffFraction = 0.85
)

// featureDim is the per-frame feature vector length: RMS, ZCR, centroid,
// rolloff, plus one energy per band.
const featureDim = 4 + numBands

// frameFeatures extracts the 12-dimensional feature vector for one audio
// frame. The extraction is deterministic: identical input always yields an
// identical vector.
func frameFeatures(frame []float64, sampleRate int) []float64 {
	var sumSq float64
	for _, s := range frame {
		sumSq += s * s
	}
	rms := math.Sqrt(sumSq/float64(len(frame)) + 1e-12)

	var crossings float64
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	zcr := crossings / float64(len(frame))

	spectrum := powerSpectrum(frame, nfft)
	centroid := spectralCentroid(spectrum, sampleRate)
	rolloff := spectralRolloff(spectrum, sampleRate, rolloffFraction)

	features := make([]float64, 0, featureDim)
	features = append(features, rms, zcr, centroid, rolloff)
	features = append(features, bandEnergies(spectrum, numBands)...)
	return features
}

// spectralCentroid is the power-weighted mean frequency of the spectrum.
func spectralCentroid(spectrum []float64, sampleRate int) float64 {
	var num, den float64
	for i, p := range spectrum {
		freq := float64(i) * float64(sampleRate) / (2 * float64(len(spectrum)))
		num += freq * p
		den += p
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// spectralRolloff is the frequency below which the given fraction of total
// spectral energy lies. Returns the Nyquist frequency when the threshold is
// never reached.
func spectralRolloff(spectrum []float64, sampleRate int, fraction float64) float64 {
	var total float64
	for _, p := range spectrum {
		total += p
	}
	target := total * fraction

	var sum float64
	for i, p := range spectrum {
		sum += p
		if sum >= target {
			return float64(i) * float64(sampleRate) / (2 * float64(len(spectrum)))
		}
	}
	return float64(sampleRate) / 2
}

// bandEnergies averages spectral power over bands equal-width bins.
func bandEnergies(spectrum []float64, bands int) []float64 {
	energies := make([]float64, bands)
	n := len(spectrum)
	for b := 0; b < bands; b++ {
		start := b * n / bands
		end := (b + 1) * n / bands
		var sum float64
		for i := start; i < end && i < n; i++ {
			sum += spectrum[i]
		}
		width := end - start
		if width < 1 {
			width = 1
		}
		energies[b] = sum / float64(width)
	}
	return energies
}
