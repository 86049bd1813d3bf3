package synth

import (
	"fmt"

	"github.com/superterminal/voicesynth/internal/pcm"
)

// SetRenderMode switches between live output and capture. Enabling starts
// accumulating every block GenerateAudio produces; enabling again only
// replaces the destination path. Disabling writes the capture to the path
// as WAV, outside every controller lock, and returns the write error.
// Disabling while not capturing returns ErrRenderMode.
func (c *Controller) SetRenderMode(enable bool, path string) error {
	c.renderMu.Lock()
	if enable {
		if !c.capturing {
			c.capture = c.capture[:0]
		}
		c.capturing = true
		c.capturePath = path
		c.renderMu.Unlock()
		c.log.Info("render mode enabled", "path", path)
		return nil
	}
	if !c.capturing {
		c.renderMu.Unlock()
		return ErrRenderMode
	}
	buf := &pcm.Buffer{SampleRate: c.cfg.SampleRate, Channels: 2, Samples: c.capture}
	path = c.capturePath
	bits := c.cfg.WAVBits
	c.capturing = false
	c.capture = nil
	c.capturePath = ""
	c.renderMu.Unlock()

	if path == "" {
		return nil
	}
	if err := pcm.WriteWAVFile(path, buf, bits); err != nil {
		c.log.Warn("render mode write failed", "path", path, "err", err)
		return fmt.Errorf("render mode: %w", err)
	}
	c.log.Info("render mode wrote wav", "path", path, "frames", buf.Frames(), "bits", bits)
	return nil
}

// RenderMode reports whether capture is active.
func (c *Controller) RenderMode() bool {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.capturing
}

// Render runs the controller for frames frames and returns the result as a
// new buffer, in blocks of the configured block size.
func (c *Controller) Render(frames int) *pcm.Buffer {
	cfg := c.Config()
	out := pcm.NewStereo(cfg.SampleRate, frames)
	for pos := 0; pos < frames; {
		n := min(cfg.BlockSize, frames-pos)
		c.GenerateAudio(out.Samples[pos*2:], n)
		pos += n
	}
	return out
}
