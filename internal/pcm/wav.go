package pcm

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WriteWAV encodes b as little-endian RIFF/WAVE integer PCM at 16 or 32 bits.
func WriteWAV(w io.WriteSeeker, b *Buffer, bits int) error {
	if bits != 16 && bits != 32 {
		return fmt.Errorf("wav: bit depth %d: %w", bits, ErrUnsupported)
	}
	if b == nil || b.Channels <= 0 || b.SampleRate <= 0 {
		return fmt.Errorf("wav: empty buffer: %w", ErrUnsupported)
	}
	enc := wav.NewEncoder(w, b.SampleRate, bits, b.Channels, wavFormatPCM)
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate},
		Data:           make([]int, len(b.Samples)),
		SourceBitDepth: bits,
	}
	scale := 32767.0
	if bits == 32 {
		scale = 2147483647.0
	}
	for i, s := range b.Samples {
		ib.Data[i] = int(math.Round(float64(Clip(s)) * scale))
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: finalize: %w", err)
	}
	return nil
}

// WriteWAVFile writes b to path. A failed write removes the partial file.
func WriteWAVFile(path string, b *Buffer, bits int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, b, bits); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// DecodeWAV reads an integer PCM WAV stream into float samples in [-1,1].
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: invalid file: %w", ErrUnsupported)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("wav: audio format %d: %w", dec.WavAudioFormat, ErrUnsupported)
	}
	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: read samples: %w", err)
	}
	depth := int(dec.BitDepth)
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("wav: bit depth %d: %w", depth, ErrUnsupported)
	}
	var full float64
	var offset float64
	if depth == 8 {
		// 8-bit WAV is unsigned.
		full, offset = 128, 128
	} else {
		full = float64(int64(1) << (depth - 1))
	}
	out := &Buffer{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    make([]float32, len(ib.Data)),
	}
	for i, v := range ib.Data {
		out.Samples[i] = Clip(float32((float64(v) - offset) / full))
	}
	return out, nil
}

// DecodeWAVBytes is DecodeWAV over an in-memory image.
func DecodeWAVBytes(data []byte) (*Buffer, error) {
	return DecodeWAV(bytes.NewReader(data))
}
