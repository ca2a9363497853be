package canvas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
)

// ExportSVG renders the recorded strokes as an SVG document of the same size
// as the raster buffer. Strokes are kept as polylines so the archived
// signature scales without loss. A cleared surface produces an empty drawing.
func (s *Surface) ExportSVG() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("width", strconv.Itoa(s.Width()))
	svg.CreateAttr("height", strconv.Itoa(s.Height()))
	svg.CreateAttr("viewBox", fmt.Sprintf("0 0 %d %d", s.Width(), s.Height()))

	bg := svg.CreateElement("rect")
	bg.CreateAttr("width", "100%")
	bg.CreateAttr("height", "100%")
	bg.CreateAttr("fill", "#FFFFFF")

	for _, st := range s.Strokes() {
		if len(st.Points) < 2 {
			continue
		}
		path := svg.CreateElement("path")
		path.CreateAttr("d", pathData(st.Points))
		path.CreateAttr("fill", "none")
		path.CreateAttr("stroke", hexColor(st.Style))
		path.CreateAttr("stroke-width", strconv.FormatFloat(st.Style.Width, 'f', -1, 64))
		path.CreateAttr("stroke-linecap", "round")
		path.CreateAttr("stroke-linejoin", "round")
	}

	doc.Indent(2)
	b, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "write svg")
	}
	return b, nil
}

func pathData(points []Point) string {
	var sb strings.Builder
	for i, p := range points {
		if i == 0 {
			sb.WriteString("M")
		} else {
			sb.WriteString(" L")
		}
		sb.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
	}
	return sb.String()
}

func hexColor(st StrokeStyle) string {
	return fmt.Sprintf("#%02X%02X%02X", st.Color.R, st.Color.G, st.Color.B)
}
