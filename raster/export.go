package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io"
	"path/filepath"

	"github.com/rotblauer/tempd/gzfile"
)

var ErrBadDump = errors.New("raster: bad texture dump")

var dumpMagic = [4]byte{'T', 'X', 'A', '1'}

type dumpHeader struct {
	Magic  [4]byte
	Width  uint32
	Height uint32
	Layers uint32
	Level  int32
}

// EncodePNG writes layer t as a PNG.
func (s *Stack) EncodePNG(w io.Writer, t int) error {
	img, err := s.Layer(t)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WriteGZ dumps the stack as a gzipped texture array with a small
// fixed-size header.
func (s *Stack) WriteGZ(path string) error {
	w, err := gzfile.NewWriter(path, nil)
	if err != nil {
		return err
	}
	h := dumpHeader{
		Magic:  dumpMagic,
		Width:  uint32(s.Width),
		Height: uint32(s.Height),
		Layers: uint32(len(s.Layers)),
		Level:  int32(s.Level),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		w.Close()
		return err
	}
	if _, err := w.Write(s.Bytes()); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func ReadGZ(path string) (*Stack, error) {
	r, err := gzfile.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var h dumpHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	if h.Magic != dumpMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadDump, h.Magic[:])
	}
	b := make([]byte, int(h.Width)*int(h.Height)*4*int(h.Layers))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	return FromBytes(int(h.Width), int(h.Height), int(h.Level), b)
}

// LayerName is the file name used for layer t in exports.
func LayerName(t int) string {
	return fmt.Sprintf("t%03d.png", t)
}

// LayerPath joins dir and LayerName(t).
func LayerPath(dir string, t int) string {
	return filepath.Join(dir, LayerName(t))
}
