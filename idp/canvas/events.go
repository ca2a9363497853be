package canvas

// Rect is the on-screen placement of the surface, in display (CSS) pixels.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// SetDisplayRect records where and how large the surface is displayed. The
// backing store may have a different resolution than its displayed size.
func (s *Surface) SetDisplayRect(r Rect) {
	s.display = r
}

// ToBacking maps display coordinates to backing-store pixels using the ratio
// (backingWidth/displayWidth, backingHeight/displayHeight). Without a display
// rectangle the mapping is the identity.
func (s *Surface) ToBacking(clientX, clientY float64) Point {
	d := s.display
	if d.Width <= 0 || d.Height <= 0 {
		return Point{X: clientX - d.Left, Y: clientY - d.Top}
	}
	scaleX := float64(s.Width()) / d.Width
	scaleY := float64(s.Height()) / d.Height
	return Point{
		X: (clientX - d.Left) * scaleX,
		Y: (clientY - d.Top) * scaleY,
	}
}

type EventKind int

const (
	Down EventKind = iota
	Move
	Up
	Leave
	Cancel
)

type Device int

const (
	Mouse Device = iota
	Touch
)

// Event is a pointer or touch sample in display coordinates. For touch
// events ClientX/ClientY come from the first active touch, or the first
// changed touch when the finger has been lifted.
type Event struct {
	Kind    EventKind
	Device  Device
	ClientX float64
	ClientY float64
}

// HandleEvent funnels mouse and touch input through the same coordinate
// mapping and stroke API. The result tells the caller to suppress the
// default browser behavior: on the event that starts a stroke and while a
// stroke is active, for mouse and touch alike.
func (s *Surface) HandleEvent(ev Event) (preventDefault bool) {
	wasDrawing := s.drawing

	switch ev.Kind {
	case Down:
		if err := s.BeginStroke(s.ToBacking(ev.ClientX, ev.ClientY)); err != nil {
			// a second finger while drawing; keep the current stroke
			logger.Debug("ignoring pointer down while a stroke is open")
		}
		return true
	case Move:
		s.ExtendStroke(s.ToBacking(ev.ClientX, ev.ClientY))
		return wasDrawing
	case Up, Cancel:
		s.EndStroke()
		return wasDrawing
	case Leave:
		// the pointer left the surface; the stroke ends but nothing is suppressed
		s.EndStroke()
		return false
	}
	return false
}
