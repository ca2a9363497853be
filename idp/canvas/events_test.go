package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBacking_ScalesDisplayToBacking(t *testing.T) {
	s := newSurface(t)
	s.SetDisplayRect(Rect{Left: 10, Top: 20, Width: 250, Height: 100})

	p := s.ToBacking(135, 70)

	assert.InDelta(t, 250, p.X, 1e-9)
	assert.InDelta(t, 100, p.Y, 1e-9)
}

func TestToBacking_IdentityWithoutDisplayRect(t *testing.T) {
	s := newSurface(t)
	assert.Equal(t, Point{X: 12, Y: 34}, s.ToBacking(12, 34))
}

func TestHandleEvent_TouchSuppressesScrollingWhileDrawing(t *testing.T) {
	s := newSurface(t)
	s.SetDisplayRect(Rect{Width: 250, Height: 100})

	// a touch move without an active stroke is a normal scroll gesture
	assert.False(t, s.HandleEvent(Event{Kind: Move, Device: Touch, ClientX: 5, ClientY: 5}))

	assert.True(t, s.HandleEvent(Event{Kind: Down, Device: Touch, ClientX: 10, ClientY: 10}))
	assert.True(t, s.HandleEvent(Event{Kind: Move, Device: Touch, ClientX: 100, ClientY: 50}))
	assert.True(t, s.HandleEvent(Event{Kind: Up, Device: Touch, ClientX: 100, ClientY: 50}))

	assert.False(t, s.Drawing())
	assert.True(t, s.HasContent())

	strokes := s.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, Point{X: 200, Y: 100}, strokes[0].Points[1])
}

func TestHandleEvent_MouseAndTouchShareStrokeAPI(t *testing.T) {
	mouse := newSurface(t)
	touch := newSurface(t)

	for _, kind := range []EventKind{Down, Move, Move, Up} {
		x := float64(20 + 30*int(kind))
		mouse.HandleEvent(Event{Kind: kind, Device: Mouse, ClientX: x, ClientY: x})
		touch.HandleEvent(Event{Kind: kind, Device: Touch, ClientX: x, ClientY: x})
	}

	assert.Equal(t, mouse.Strokes(), touch.Strokes())
	assert.Equal(t, mouse.Image().Pix, touch.Image().Pix)
}

func TestHandleEvent_LeaveEndsStroke(t *testing.T) {
	s := newSurface(t)
	s.HandleEvent(Event{Kind: Down, Device: Mouse, ClientX: 10, ClientY: 10})
	s.HandleEvent(Event{Kind: Move, Device: Mouse, ClientX: 50, ClientY: 10})

	assert.False(t, s.HandleEvent(Event{Kind: Leave, Device: Mouse}))
	assert.False(t, s.Drawing())

	// moves after leaving do not draw
	s.HandleEvent(Event{Kind: Move, Device: Mouse, ClientX: 50, ClientY: 150})
	assert.Equal(t, white, s.Image().RGBAAt(50, 150))
}

func TestHandleEvent_SecondFingerKeepsStroke(t *testing.T) {
	s := newSurface(t)
	s.HandleEvent(Event{Kind: Down, Device: Touch, ClientX: 10, ClientY: 10})
	s.HandleEvent(Event{Kind: Down, Device: Touch, ClientX: 300, ClientY: 150})
	s.HandleEvent(Event{Kind: Move, Device: Touch, ClientX: 40, ClientY: 10})
	s.HandleEvent(Event{Kind: Up, Device: Touch})

	strokes := s.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, Point{X: 10, Y: 10}, strokes[0].Points[0])
}

func TestHandleEvent_MouseMoveWithoutStrokeKeepsDefault(t *testing.T) {
	s := newSurface(t)

	assert.False(t, s.HandleEvent(Event{Kind: Move, Device: Mouse, ClientX: 5, ClientY: 5}))
	assert.False(t, s.HasContent())

	assert.True(t, s.HandleEvent(Event{Kind: Down, Device: Mouse, ClientX: 10, ClientY: 10}))
	assert.True(t, s.HandleEvent(Event{Kind: Move, Device: Mouse, ClientX: 60, ClientY: 30}))
	assert.True(t, s.HandleEvent(Event{Kind: Up, Device: Mouse, ClientX: 60, ClientY: 30}))
	assert.False(t, s.HandleEvent(Event{Kind: Move, Device: Mouse, ClientX: 80, ClientY: 30}))
}
