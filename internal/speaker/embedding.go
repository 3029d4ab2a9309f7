package speaker

import (
	"math"

	"github.com/mwalther/earmark/pkg/audio"
)

// minPCMBytes is the minimum clip length accepted for embedding — 100 ms of
// 16 kHz mono PCM. Anything shorter carries too little voice to be useful.
const minPCMBytes = 3200

const (
	frameDurationMs = 25
	hopDurationMs   = 10
)

// computeEmbedding turns a PCM clip into one fixed-dimension embedding:
// 25 ms frames at a 10 ms hop, 12 features per frame (see frameFeatures),
// averaged across all frames of the clip. Returns nil for audio that is too
// short or malformed.
func computeEmbedding(pcm []byte, sampleRate int) []float64 {
	if len(pcm) < minPCMBytes || sampleRate <= 0 {
		return nil
	}

	samples := audio.Samples(pcm)
	frameSize := sampleRate * frameDurationMs / 1000
	hop := sampleRate * hopDurationMs / 1000
	if frameSize <= 0 || hop <= 0 {
		return nil
	}

	sum := make([]float64, featureDim)
	frames := 0
	for start := 0; start+frameSize <= len(samples); start += hop {
		feats := frameFeatures(samples[start:start+frameSize], sampleRate)
		for i, v := range feats {
			sum[i] += v
		}
		frames++
	}
	if frames == 0 {
		return nil
	}

	for i := range sum {
		sum[i] /= float64(frames)
	}
	return sum
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is absent, mismatched in length, or zero-norm.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
