package canvas

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DecodeStrokes parses a recorded drawing: a JSON array of strokes, each an
// array of {"x":..,"y":..} points in display coordinates.
//
//	[[{"x":10,"y":20},{"x":40,"y":25}],[{"x":50,"y":60},{"x":55,"y":90}]]
func DecodeStrokes(data []byte) ([][]Point, error) {
	d := jx.DecodeBytes(data)
	var out [][]Point
	err := d.Arr(func(d *jx.Decoder) error {
		var stroke []Point
		if err := d.Arr(func(d *jx.Decoder) error {
			var p Point
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "x":
					v, err := d.Float64()
					p.X = v
					return err
				case "y":
					v, err := d.Float64()
					p.Y = v
					return err
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			stroke = append(stroke, p)
			return nil
		}); err != nil {
			return err
		}
		out = append(out, stroke)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode strokes")
	}
	return out, nil
}

// EncodeStrokes is the inverse of DecodeStrokes, in backing-store pixels.
func EncodeStrokes(strokes []Stroke) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Arr(func(e *jx.Encoder) {
		for _, s := range strokes {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range s.Points {
					e.Obj(func(e *jx.Encoder) {
						e.Field("x", func(e *jx.Encoder) { e.Float64(p.X) })
						e.Field("y", func(e *jx.Encoder) { e.Float64(p.Y) })
					})
				}
			})
		}
	})
	return append([]byte(nil), e.Bytes()...)
}

// Replay draws recorded strokes through the regular stroke API, mapping
// every point from display coordinates first.
func (s *Surface) Replay(strokes [][]Point) error {
	for _, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		if err := s.BeginStroke(s.ToBacking(stroke[0].X, stroke[0].Y)); err != nil {
			return err
		}
		for _, p := range stroke[1:] {
			s.ExtendStroke(s.ToBacking(p.X, p.Y))
		}
		s.EndStroke()
	}
	return nil
}
