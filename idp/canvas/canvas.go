// Package canvas implements the signature capture surface: an owned raster
// buffer that records freehand mouse or touch strokes, detects whether
// anything was drawn and serializes the result for upload.
package canvas

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/vector"
)

var logger = logrus.WithField("component", "idp.canvas")

const (
	DefaultWidth  = 500
	DefaultHeight = 200
)

var (
	// ErrStrokeOpen BeginStroke was called while a stroke is still being drawn.
	ErrStrokeOpen = errors.New("stroke already in progress")
	ErrEmptySize  = errors.New("canvas size must be positive")
)

// Point is a recorded input sample in backing-store pixel space.
type Point struct {
	X, Y float64
}

type Cap int

const (
	RoundCap Cap = iota
)

type Join int

const (
	RoundJoin Join = iota
)

// StrokeStyle is fixed once per stroke when the stroke begins.
type StrokeStyle struct {
	Color color.RGBA
	Width float64
	Cap   Cap
	Join  Join
}

// DefaultStyle black pen, 3px wide, rounded caps and joins.
var DefaultStyle = StrokeStyle{
	Color: color.RGBA{A: 0xff},
	Width: 3,
	Cap:   RoundCap,
	Join:  RoundJoin,
}

// Stroke is a polyline drawn with a single style.
type Stroke struct {
	Style  StrokeStyle
	Points []Point
}

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Surface is the signature drawing surface. It is not safe for concurrent
// use; all mutations are expected to come from one input loop.
type Surface struct {
	img     *image.RGBA
	drawing bool
	current *Stroke
	strokes []Stroke

	style   StrokeStyle
	display Rect
	rast    *vector.Rasterizer
}

// New allocates a surface of width x height pixels filled opaque white.
func New(width, height int) (*Surface, error) {
	s := &Surface{style: DefaultStyle}
	if err := s.Initialize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize allocates a fresh buffer and fills it with opaque white. A
// previously allocated buffer is never reused, so this must be called every
// time the surface becomes visible again.
func (s *Surface) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrEmptySize
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	s.fillWhite()
	s.drawing = false
	s.current = nil
	s.strokes = nil
	if s.style.Width <= 0 {
		s.style = DefaultStyle
	}
	logger.WithField("width", width).WithField("height", height).Debug("surface initialized")
	return nil
}

// SetStyle changes the style used by strokes begun afterwards.
func (s *Surface) SetStyle(style StrokeStyle) {
	s.style = style
}

func (s *Surface) Width() int  { return s.img.Rect.Dx() }
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Drawing reports whether a stroke is currently open.
func (s *Surface) Drawing() bool { return s.drawing }

// Image exposes the backing buffer. Callers must not modify it.
func (s *Surface) Image() *image.RGBA { return s.img }

// Strokes returns the completed and in-progress strokes in drawing order.
func (s *Surface) Strokes() []Stroke {
	out := make([]Stroke, 0, len(s.strokes)+1)
	out = append(out, s.strokes...)
	if s.current != nil {
		out = append(out, *s.current)
	}
	return out
}

// BeginStroke opens a new stroke at p.
func (s *Surface) BeginStroke(p Point) error {
	if s.drawing {
		return ErrStrokeOpen
	}
	s.drawing = true
	s.current = &Stroke{Style: s.style, Points: []Point{p}}
	return nil
}

// ExtendStroke renders a segment from the last recorded point to p. It is a
// no-op when no stroke is open.
func (s *Surface) ExtendStroke(p Point) {
	if !s.drawing || s.current == nil {
		return
	}
	last := s.current.Points[len(s.current.Points)-1]
	s.current.Points = append(s.current.Points, p)
	s.segment(last, p, s.current.Style)
}

// EndStroke closes the open stroke. Calling it when not drawing does nothing.
func (s *Surface) EndStroke() {
	if !s.drawing {
		return
	}
	s.drawing = false
	if s.current != nil && len(s.current.Points) > 1 {
		s.strokes = append(s.strokes, *s.current)
	}
	s.current = nil
}

// Clear resets the whole buffer to opaque white, abandoning any open stroke.
func (s *Surface) Clear() {
	s.fillWhite()
	s.drawing = false
	s.current = nil
	s.strokes = nil
}

// HasContent scans every pixel and reports whether any of them differs from
// pure white, ignoring alpha. This is a full O(width*height) pass meant to be
// run once when the form is submitted, never per stroke or per frame.
func (s *Surface) HasContent() bool {
	pix := s.img.Pix
	for y := 0; y < s.img.Rect.Dy(); y++ {
		row := pix[y*s.img.Stride : y*s.img.Stride+4*s.img.Rect.Dx()]
		for i := 0; i < len(row); i += 4 {
			if row[i] != 0xff || row[i+1] != 0xff || row[i+2] != 0xff {
				return true
			}
		}
	}
	return false
}

// WritePNG encodes the current buffer as PNG.
func (s *Surface) WritePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, s.img); err != nil {
		return errors.Wrap(err, "encode png")
	}
	return nil
}

// ExportPNG returns the PNG encoded buffer, ready for a multipart upload.
func (s *Surface) ExportPNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.WritePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Surface) fillWhite() {
	draw.Draw(s.img, s.img.Rect, image.NewUniform(white), image.Point{}, draw.Src)
}
