package pcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream. go-mp3 always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (*Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: decode: %w", err)
	}
	n := len(raw) / 2
	out := &Buffer{SampleRate: dec.SampleRate(), Channels: 2, Samples: make([]float32, n)}
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out.Samples[i] = float32(v) / 32768
	}
	return out, nil
}

// DecodeMP3Bytes is DecodeMP3 over an in-memory image.
func DecodeMP3Bytes(data []byte) (*Buffer, error) {
	return DecodeMP3(bytes.NewReader(data))
}

// Decode sniffs data and dispatches to the WAV or MP3 decoder.
func Decode(data []byte) (*Buffer, error) {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return DecodeWAVBytes(data)
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return DecodeMP3Bytes(data)
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return DecodeMP3Bytes(data)
	default:
		return nil, ErrUnsupported
	}
}
