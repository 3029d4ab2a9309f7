package speaker

import "math"

// fft performs an in-place iterative radix-2 FFT: bit-reversal permutation
// followed by butterfly stages. len(buf) must be a power of two.
func fft(buf []complex128) {
	n := len(buf)

	for j, i := 1, 0; j < n; j++ {
		bit := n >> 1
		for ; i >= bit; bit >>= 1 {
			i -= bit
		}
		i += bit
		if j < i {
			buf[j], buf[i] = buf[i], buf[j]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		wlen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := buf[i+j]
				v := buf[i+j+length/2] * w
				buf[i+j] = u + v
				buf[i+j+length/2] = u - v
				w *= wlen
			}
		}
	}
}

// powerSpectrum computes the nfft-point power spectrum of frame, zero-padded
// or truncated to nfft samples. It returns nfft/2 bins.
func powerSpectrum(frame []float64, nfft int) []float64 {
	buf := make([]complex128, nfft)
	n := min(len(frame), nfft)
	for i := 0; i < n; i++ {
		buf[i] = complex(frame[i], 0)
	}

	fft(buf)

	power := make([]float64, nfft/2)
	for i := range power {
		re, im := real(buf[i]), imag(buf[i])
		power[i] = re*re + im*im
	}
	return power
}
