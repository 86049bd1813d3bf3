// Package audio moves rendered float PCM to the platform: a stream reader
// in float32 little-endian stereo, the ebiten and oto backends, and a beep
// mixer for one-shot playback of bank content.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// SampleSource fills dst with interleaved stereo samples in [-1,1].
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// SourceFunc adapts a function to SampleSource.
type SourceFunc func(dst []float32)

func (f SourceFunc) Process(dst []float32) { f(dst) }

// StreamReader pulls from a SampleSource in whole stereo frames.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	clear(r.buf)
	r.source.Process(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }
