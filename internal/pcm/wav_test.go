package pcm

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	src := NewStereo(48000, 480)
	for i := 0; i < src.Frames(); i++ {
		v := float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
		src.Samples[i*2] = v * 0.5
		src.Samples[i*2+1] = -v * 0.5
	}
	for _, bits := range []int{16, 32} {
		path := filepath.Join(t.TempDir(), "out.wav")
		if err := WriteWAVFile(path, src, bits); err != nil {
			t.Fatalf("write %d-bit: %v", bits, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %d-bit: %v", bits, err)
		}
		if got.SampleRate != 48000 || got.Channels != 2 {
			t.Fatalf("format = %d Hz / %d ch", got.SampleRate, got.Channels)
		}
		if got.Frames() != src.Frames() {
			t.Fatalf("frames = %d, want %d", got.Frames(), src.Frames())
		}
		for i := range src.Samples {
			if d := math.Abs(float64(got.Samples[i] - src.Samples[i])); d > 1.0/16000 {
				t.Fatalf("%d-bit sample %d off by %g", bits, i, d)
			}
		}
	}
}

func TestWAV16BitQuantization(t *testing.T) {
	src := &Buffer{SampleRate: 44100, Channels: 2, Samples: []float32{1.5, -2, 0.5, 0}}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteWAVFile(path, src, 16); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header")
	}
	got, err := DecodeWAVBytes(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float32{32767.0 / 32768, -32767.0 / 32768, 16384.0 / 32768, 0}
	for i, w := range want {
		if math.Abs(float64(got.Samples[i]-w)) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, got.Samples[i], w)
		}
	}
}

func TestWriteWAVRejectsBitDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	err := WriteWAVFile(path, NewStereo(48000, 10), 24)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("partial file should be removed")
	}
}

func TestDecodeRejectsUnknownData(t *testing.T) {
	if _, err := Decode([]byte("not audio at all")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestBufferDurationAndScale(t *testing.T) {
	b := NewStereo(48000, 24000)
	if d := b.Duration(); d != 0.5 {
		t.Fatalf("duration = %v, want 0.5", d)
	}
	b.Samples[0] = 0.8
	b.Scale(2)
	if b.Samples[0] != 1 {
		t.Fatalf("scale should clip, got %v", b.Samples[0])
	}
	if b.Bytes() != 24000*2*4 {
		t.Fatalf("bytes = %d", b.Bytes())
	}
}
