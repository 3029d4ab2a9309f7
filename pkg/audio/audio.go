// Package audio provides PCM utilities for the capture boundary: 16-bit
// little-endian sample conversion, stereo downmix, and linear resampling to
// the speaker-verification sample rate. The verification engine consumes
// mono PCM only, so [Normalize] is the usual entry point for raw capture
// chunks.
package audio

import "time"

// Chunk is a block of 16-bit little-endian PCM with its format attached.
type Chunk struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration returns the play time of the chunk, or 0 for malformed input.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	samples := len(c.PCM) / 2 / c.Channels
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// Normalize converts a chunk to mono at targetRate. Chunks already in the
// target format are returned unchanged (zero allocation). Unsupported
// channel counts (>2) and malformed rates yield an empty chunk.
func Normalize(c Chunk, targetRate int) Chunk {
	if targetRate <= 0 || c.SampleRate <= 0 || c.Channels <= 0 || c.Channels > 2 {
		return Chunk{SampleRate: targetRate, Channels: 1}
	}
	if len(c.PCM)%2 != 0 {
		// Odd byte count means torn int16 samples; drop rather than guess.
		return Chunk{SampleRate: targetRate, Channels: 1}
	}

	pcm := c.PCM
	if c.Channels == 2 {
		pcm = StereoToMono(pcm)
	}
	if c.SampleRate != targetRate {
		pcm = ResampleMono16(pcm, c.SampleRate, targetRate)
	}
	return Chunk{PCM: pcm, SampleRate: targetRate, Channels: 1}
}

// StereoToMono averages L+R per stereo frame (4 bytes) to produce mono
// output. Uses int32 arithmetic to avoid overflow and clamps to int16 range.
func StereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		avg := (l + r) / 2

		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}

		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using
// linear interpolation. When the rates match the input is returned
// unchanged.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	if srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := 0; i < dstSamples; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		}

		v := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Samples converts 16-bit little-endian mono PCM to float64 samples in
// [-1, 1). A trailing odd byte is ignored.
func Samples(pcm []byte) []float64 {
	n := len(pcm) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		out[i] = float64(s) / 32768
	}
	return out
}
