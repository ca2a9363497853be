package canvas

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// arcSteps is the number of polygon edges used per half circle of a round cap.
const arcSteps = 8

// segment paints the line from a to b with round caps. Consecutive segments
// of a stroke share end points, so the round caps also form round joins.
//
// The capsule is rasterized over its full bounds into a coverage mask; only
// the composite into the buffer is clipped to the surface.
func (s *Surface) segment(a, b Point, style StrokeStyle) {
	r := style.Width / 2
	if r <= 0 {
		return
	}

	full := image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-r))-1,
		int(math.Floor(math.Min(a.Y, b.Y)-r))-1,
		int(math.Ceil(math.Max(a.X, b.X)+r))+1,
		int(math.Ceil(math.Max(a.Y, b.Y)+r))+1,
	)
	clip := full.Intersect(s.img.Rect)
	if clip.Empty() {
		return
	}

	if s.rast == nil {
		s.rast = vector.NewRasterizer(full.Dx(), full.Dy())
	} else {
		s.rast.Reset(full.Dx(), full.Dy())
	}

	ox, oy := float64(full.Min.X), float64(full.Min.Y)
	for i, p := range capsule(a, b, r) {
		x, y := float32(p.X-ox), float32(p.Y-oy)
		if i == 0 {
			s.rast.MoveTo(x, y)
		} else {
			s.rast.LineTo(x, y)
		}
	}
	s.rast.ClosePath()

	mask := image.NewAlpha(s.rast.Bounds())
	s.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(s.img, clip, image.NewUniform(style.Color), image.Point{}, mask, clip.Min.Sub(full.Min), draw.Over)
}

// capsule returns the convex outline of a segment of radius r with round
// ends. A zero length segment degenerates to a circle.
func capsule(a, b Point, r float64) []Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	var theta float64
	if l > 0 {
		// normal of the segment direction
		theta = math.Atan2(dx/l, -dy/l)
	}

	out := make([]Point, 0, 2*(arcSteps+1))
	for k := 0; k <= arcSteps; k++ {
		t := theta - float64(k)*math.Pi/arcSteps
		out = append(out, Point{X: b.X + r*math.Cos(t), Y: b.Y + r*math.Sin(t)})
	}
	for k := 0; k <= arcSteps; k++ {
		t := theta + math.Pi - float64(k)*math.Pi/arcSteps
		out = append(out, Point{X: a.X + r*math.Cos(t), Y: a.Y + r*math.Sin(t)})
	}
	return out
}
