package bank

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrInvalidSID is returned for blobs without a usable PSID/RSID header.
var ErrInvalidSID = errors.New("bank: invalid SID file")

// ErrSubtune is returned by SetSubtune for numbers outside 1..Songs.
var ErrSubtune = errors.New("bank: subtune out of range")

const sidHeaderLen = 0x76

// SIDHeader is the metadata of a PSID/RSID file.
type SIDHeader struct {
	Magic       string
	Version     uint16
	DataOffset  uint16
	LoadAddress uint16
	InitAddress uint16
	PlayAddress uint16
	Songs       uint16
	StartSong   uint16
	Speed       uint32
	Name        string
	Author      string
	Released    string
}

// IsRSID reports whether the file needs a real C64 environment.
func (h SIDHeader) IsRSID() bool { return h.Magic == "RSID" }

// ParseSIDHeader validates and decodes the fixed header fields.
func ParseSIDHeader(data []byte) (SIDHeader, error) {
	if len(data) < sidHeaderLen {
		return SIDHeader{}, fmt.Errorf("%w: %d header bytes", ErrInvalidSID, len(data))
	}
	h := SIDHeader{Magic: string(data[:4])}
	if h.Magic != "PSID" && h.Magic != "RSID" {
		return SIDHeader{}, fmt.Errorf("%w: magic %q", ErrInvalidSID, h.Magic)
	}
	be := binary.BigEndian
	h.Version = be.Uint16(data[0x04:])
	h.DataOffset = be.Uint16(data[0x06:])
	h.LoadAddress = be.Uint16(data[0x08:])
	h.InitAddress = be.Uint16(data[0x0A:])
	h.PlayAddress = be.Uint16(data[0x0C:])
	h.Songs = be.Uint16(data[0x0E:])
	h.StartSong = be.Uint16(data[0x10:])
	h.Speed = be.Uint32(data[0x12:])
	h.Name = paddedString(data[0x16:0x36])
	h.Author = paddedString(data[0x36:0x56])
	h.Released = paddedString(data[0x56:0x76])
	if h.Songs == 0 {
		return SIDHeader{}, fmt.Errorf("%w: no songs", ErrInvalidSID)
	}
	if h.StartSong == 0 || h.StartSong > h.Songs {
		h.StartSong = 1
	}
	return h, nil
}

func paddedString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// SID is a registered blob, its header and the selected subtune.
type SID struct {
	Data    []byte
	Header  SIDHeader
	Subtune int
}

// SIDBank maps ids to SID files.
type SIDBank struct {
	s *store[SID]
}

// NewSIDBank returns an empty bank. log may be nil.
func NewSIDBank(log *slog.Logger) *SIDBank {
	return &SIDBank{s: newStore("sid", func(s SID) int { return len(s.Data) }, log)}
}

// Register validates data and stores a private copy.
func (b *SIDBank) Register(data []byte) (uint32, error) {
	h, err := ParseSIDHeader(data)
	if err != nil {
		return 0, err
	}
	return b.s.add(SID{Data: append([]byte(nil), data...), Header: h, Subtune: int(h.StartSong)})
}

// LoadFile reads and registers a .sid file.
func (b *SIDBank) LoadFile(path string) (uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return b.Register(data)
}

// Get returns the SID for id.
func (b *SIDBank) Get(id uint32) (SID, error) { return b.s.get(id) }

// Info returns the header for id.
func (b *SIDBank) Info(id uint32) (SIDHeader, error) {
	s, err := b.s.get(id)
	return s.Header, err
}

// SetSubtune selects subtune n, 1-based.
func (b *SIDBank) SetSubtune(id uint32, n int) error {
	return b.s.update(id, func(s SID) (SID, error) {
		if n < 1 || n > int(s.Header.Songs) {
			return s, fmt.Errorf("subtune %d of %d: %w", n, s.Header.Songs, ErrSubtune)
		}
		s.Subtune = n
		return s, nil
	})
}

// Exists reports whether id is live.
func (b *SIDBank) Exists(id uint32) bool { return b.s.exists(id) }

// Free drops id.
func (b *SIDBank) Free(id uint32) error { return b.s.free(id) }

// FreeAll drops every SID.
func (b *SIDBank) FreeAll() { b.s.freeAll() }

// Count returns the number of live SIDs.
func (b *SIDBank) Count() int { return b.s.count() }

// MemoryUsage is the blob bytes plus a fixed per-entry overhead.
func (b *SIDBank) MemoryUsage() int { return b.s.memoryUsage() }
