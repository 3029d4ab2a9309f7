package audio

import (
	"testing"
	"time"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

func TestStereoToMono(t *testing.T) {
	t.Parallel()

	// Interleaved L/R pairs.
	in := pcm16(100, 200, -100, 100, 32767, 32767)
	got := StereoToMono(in)
	want := pcm16(150, 0, 32767)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleMono16(t *testing.T) {
	t.Parallel()

	t.Run("same rate is identity", func(t *testing.T) {
		t.Parallel()
		in := pcm16(1, 2, 3, 4)
		got := ResampleMono16(in, 16000, 16000)
		if &got[0] != &in[0] {
			t.Fatal("same-rate resample should return input unchanged")
		}
	})

	t.Run("downsample halves sample count", func(t *testing.T) {
		t.Parallel()
		in := make([]byte, 3200) // 1600 samples
		got := ResampleMono16(in, 32000, 16000)
		if len(got) != 1600 {
			t.Fatalf("len = %d, want 1600", len(got))
		}
	})

	t.Run("upsample doubles sample count", func(t *testing.T) {
		t.Parallel()
		in := make([]byte, 1600) // 800 samples
		got := ResampleMono16(in, 8000, 16000)
		if len(got) != 3200 {
			t.Fatalf("len = %d, want 3200", len(got))
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("passthrough when already target format", func(t *testing.T) {
		t.Parallel()
		in := Chunk{PCM: pcm16(1, 2, 3), SampleRate: 16000, Channels: 1}
		got := Normalize(in, 16000)
		if len(got.PCM) != len(in.PCM) || got.SampleRate != 16000 || got.Channels != 1 {
			t.Fatalf("unexpected conversion: %+v", got)
		}
	})

	t.Run("stereo 48k to mono 16k", func(t *testing.T) {
		t.Parallel()
		// 480 stereo frames at 48 kHz → 160 mono samples at 16 kHz.
		in := Chunk{PCM: make([]byte, 480*4), SampleRate: 48000, Channels: 2}
		got := Normalize(in, 16000)
		if got.Channels != 1 || got.SampleRate != 16000 {
			t.Fatalf("format = %dch @ %d", got.Channels, got.SampleRate)
		}
		if len(got.PCM) != 160*2 {
			t.Fatalf("len = %d, want %d", len(got.PCM), 160*2)
		}
	})

	t.Run("malformed input yields empty chunk", func(t *testing.T) {
		t.Parallel()
		for _, in := range []Chunk{
			{PCM: []byte{1, 2, 3}, SampleRate: 16000, Channels: 1}, // odd bytes
			{PCM: make([]byte, 16), SampleRate: 0, Channels: 1},
			{PCM: make([]byte, 16), SampleRate: 16000, Channels: 6},
		} {
			if got := Normalize(in, 16000); len(got.PCM) != 0 {
				t.Errorf("Normalize(%+v) kept %d bytes, want 0", in, len(got.PCM))
			}
		}
	})
}

func TestChunkDuration(t *testing.T) {
	t.Parallel()

	c := Chunk{PCM: make([]byte, 32000), SampleRate: 16000, Channels: 1}
	if got := c.Duration(); got != time.Second {
		t.Fatalf("Duration = %v, want 1s", got)
	}
	if got := (Chunk{}).Duration(); got != 0 {
		t.Fatalf("zero chunk Duration = %v, want 0", got)
	}
}
