// Package raster turns a scalar field into one color image per timestep.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/gradient"
)

// Stack holds one raster per timestep, in time order. Every layer is
// Width (longitude extent) by Height (latitude extent). Pixel (x, y) of a
// layer is the sample at lon=x, lat=y, so Pix offset (lat*Width+lon)*4
// follows the field's own row-major order.
type Stack struct {
	Width    int
	Height   int
	Level    int
	Layers   []*image.NRGBA
	Warnings []error
}

// Rasterize evaluates g at every normalized sample of level, one layer per
// timestep. Any error aborts the whole stack.
func Rasterize(f *field.ScalarField, level int, g gradient.Evaluator) (*Stack, error) {
	if f == nil {
		return nil, fmt.Errorf("rasterize: nil field")
	}
	if g == nil {
		return nil, fmt.Errorf("rasterize: nil gradient")
	}
	l := f.Layout()
	if _, err := l.Offset(0, level, 0, 0); err != nil {
		return nil, fmt.Errorf("rasterize level %d: %w", level, err)
	}

	timeExt := l.ExtentOf(field.Time)
	latExt := l.ExtentOf(field.Latitude)
	lonExt := l.ExtentOf(field.Longitude)

	s := &Stack{
		Width:  lonExt,
		Height: latExt,
		Level:  level,
		Layers: make([]*image.NRGBA, timeExt),
	}
	if w := f.Warning(); w != nil {
		s.Warnings = append(s.Warnings, w)
	}
	for t := 0; t < timeExt; t++ {
		img := image.NewNRGBA(image.Rect(0, 0, lonExt, latExt))
		for lat := 0; lat < latExt; lat++ {
			for lon := 0; lon < lonExt; lon++ {
				img.SetNRGBA(lon, lat, g.Evaluate(f.NormalizedAt(t, level, lat, lon)))
			}
		}
		s.Layers[t] = img
	}
	return s, nil
}

func (s *Stack) Len() int {
	return len(s.Layers)
}

func (s *Stack) Layer(t int) (*image.NRGBA, error) {
	if t < 0 || t >= len(s.Layers) {
		return nil, fmt.Errorf("%w: layer %d of %d", field.ErrCoordinate, t, len(s.Layers))
	}
	return s.Layers[t], nil
}

// At returns the color stored for a timestep and grid cell.
func (s *Stack) At(t, lat, lon int) (color.NRGBA, error) {
	img, err := s.Layer(t)
	if err != nil {
		return color.NRGBA{}, err
	}
	if lat < 0 || lat >= s.Height || lon < 0 || lon >= s.Width {
		return color.NRGBA{}, fmt.Errorf("%w: lat=%d lon=%d outside %dx%d", field.ErrCoordinate, lat, lon, s.Width, s.Height)
	}
	i := (lat*s.Width + lon) * 4
	p := img.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}, nil
}

// Bytes returns the stack as one contiguous RGBA32 texture array,
// layer-major, ready for upload as a layered texture.
func (s *Stack) Bytes() []byte {
	layerSize := s.Width * s.Height * 4
	out := make([]byte, 0, layerSize*len(s.Layers))
	for _, img := range s.Layers {
		out = append(out, img.Pix[:layerSize]...)
	}
	return out
}

// FromBytes rebuilds a stack from Bytes output.
func FromBytes(width, height, level int, b []byte) (*Stack, error) {
	layerSize := width * height * 4
	if width <= 0 || height <= 0 || len(b)%layerSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d layers", field.ErrShapeMismatch, len(b), width, height)
	}
	s := &Stack{Width: width, Height: height, Level: level}
	for off := 0; off < len(b); off += layerSize {
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		copy(img.Pix, b[off:off+layerSize])
		s.Layers = append(s.Layers, img)
	}
	return s, nil
}
