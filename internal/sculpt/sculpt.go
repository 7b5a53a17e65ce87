// Package sculpt is the freehand brush tool that works on a snapshot of the
// warped frame while geometric recomputes are paused.
package sculpt

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"facewarp/pkg/geom"
	"facewarp/pkg/raster"
)

// ErrInactive is returned by operations on a deactivated session.
var ErrInactive = errors.New("sculpt: session is not active")

// Session defaults.
const (
	DefaultUndoLimit = 20  // snapshots kept for Undo
	DefaultBrushSize = 40  // brush radius in pixels
	DefaultStrength  = 0.5 // fraction of the full effect per stroke

	minBrushSize = 2
	maxBrushSize = 400
)

// Tool selects the brush behaviour.
type Tool uint8

// Brush tools.
const (
	Push    Tool = iota // drag pixels along the stroke
	Inflate             // magnify around the brush centre
	Deflate             // shrink toward the brush centre
	Smooth              // blur inside the brush
)

var toolNames = [...]string{"push", "inflate", "deflate", "smooth"}

// String returns the lowercase tool name.
func (t Tool) String() string {
	if int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("tool(%d)", uint8(t))
}

// Next cycles to the following tool.
func (t Tool) Next() Tool { return Tool((int(t) + 1) % len(toolNames)) }

// ParseTool maps a name to its Tool.
func ParseTool(s string) (Tool, error) {
	for i, name := range toolNames {
		if strings.EqualFold(s, name) {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("sculpt: unknown tool %q", s)
}

// Session holds the base snapshot, the working buffer and a bounded undo
// stack. It is not safe for concurrent use.
type Session struct {
	base   *raster.Image
	cur    *raster.Image
	undo   []*raster.Image
	limit  int
	active bool

	tool     Tool
	size     float64
	strength float64
}

// Activate starts a session over a copy of pix, a w*h RGBA buffer.
func Activate(w, h int, pix []uint8) (*Session, error) {
	buf := make([]uint8, len(pix))
	copy(buf, pix)
	base, err := raster.FromPix(w, h, buf)
	if err != nil {
		return nil, fmt.Errorf("sculpt: activate: %w", err)
	}
	return &Session{
		base:     base,
		cur:      base.Clone(),
		limit:    DefaultUndoLimit,
		active:   true,
		tool:     Push,
		size:     DefaultBrushSize,
		strength: DefaultStrength,
	}, nil
}

// Active reports whether the session still accepts strokes.
func (s *Session) Active() bool { return s.active }

// Tool returns the selected brush tool.
func (s *Session) Tool() Tool { return s.tool }

// BrushSize returns the brush radius in pixels.
func (s *Session) BrushSize() float64 { return s.size }

// Strength returns the per-stroke strength in [0,1].
func (s *Session) Strength() float64 { return s.strength }

// SetTool selects the brush tool. Unknown tools are ignored.
func (s *Session) SetTool(t Tool) {
	if int(t) < len(toolNames) {
		s.tool = t
	}
}

// SetBrushSize sets the brush radius in pixels.
func (s *Session) SetBrushSize(px float64) {
	s.size = math.Max(minBrushSize, math.Min(maxBrushSize, px))
}

// SetStrength sets the brush strength in [0,1].
func (s *Session) SetStrength(v float64) {
	s.strength = math.Max(0, math.Min(1, v))
}

// SetUndoLimit bounds the undo stack; older entries are dropped first.
func (s *Session) SetUndoLimit(n int) {
	if n < 1 {
		n = 1
	}
	s.limit = n
	s.trimUndo()
}

// UndoDepth reports how many strokes can be undone.
func (s *Session) UndoDepth() int { return len(s.undo) }

// Image returns a copy of the working buffer.
func (s *Session) Image() *raster.Image { return s.cur.Clone() }

// Stroke applies the current tool along from->to. Push drags pixels by the
// stroke vector; the other tools act around to.
func (s *Session) Stroke(from, to geom.Point) error {
	if !s.active {
		return ErrInactive
	}
	s.undo = append(s.undo, s.cur.Clone())
	s.trimUndo()

	src := s.cur.Clone()
	switch s.tool {
	case Push:
		s.push(src, from, to)
	case Inflate:
		s.scale(src, to, -1)
	case Deflate:
		s.scale(src, to, 1)
	case Smooth:
		s.smooth(src, to)
	}
	return nil
}

// Undo restores the buffer to before the last stroke.
func (s *Session) Undo() bool {
	if !s.active || len(s.undo) == 0 {
		return false
	}
	last := len(s.undo) - 1
	s.cur = s.undo[last]
	s.undo = s.undo[:last]
	return true
}

// Reset discards every stroke and returns to the base snapshot.
func (s *Session) Reset() {
	if !s.active {
		return
	}
	s.cur = s.base.Clone()
	s.undo = nil
}

// Deactivate ends the session and hands back the final buffer.
func (s *Session) Deactivate() (*raster.Image, error) {
	if !s.active {
		return nil, ErrInactive
	}
	s.active = false
	s.undo = nil
	out := s.cur
	s.cur = nil
	return out, nil
}

func (s *Session) trimUndo() {
	if extra := len(s.undo) - s.limit; extra > 0 {
		s.undo = append(s.undo[:0], s.undo[extra:]...)
	}
}

// weight is a smooth bump: 1 at the centre, 0 at the brush edge.
func (s *Session) weight(d float64) float64 {
	if d >= s.size {
		return 0
	}
	t := 1 - (d*d)/(s.size*s.size)
	return t * t
}

func (s *Session) bounds(c geom.Point) (x0, y0, x1, y1 int) {
	x0 = max(0, int(math.Floor(c.X-s.size)))
	y0 = max(0, int(math.Floor(c.Y-s.size)))
	x1 = min(s.cur.Width-1, int(math.Ceil(c.X+s.size)))
	y1 = min(s.cur.Height-1, int(math.Ceil(c.Y+s.size)))
	return
}

func (s *Session) push(src *raster.Image, from, to geom.Point) {
	d := to.Sub(from).Scale(s.strength)
	if d.LenSq() == 0 {
		return
	}
	x0, y0, x1, y1 := s.bounds(to)
	var px [4]uint8
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geom.Pt(float64(x), float64(y))
			w := s.weight(p.Sub(to).Len())
			if w == 0 {
				continue
			}
			q := p.Sub(d.Scale(w))
			src.Sample(q.X, q.Y, &px)
			px[3] = 255
			s.cur.Set(x, y, px)
		}
	}
}

// scale samples towards (dir<0, inflate) or away from (dir>0, deflate) c.
func (s *Session) scale(src *raster.Image, c geom.Point, dir float64) {
	x0, y0, x1, y1 := s.bounds(c)
	var px [4]uint8
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geom.Pt(float64(x), float64(y))
			off := p.Sub(c)
			w := s.weight(off.Len())
			if w == 0 {
				continue
			}
			q := c.Add(off.Scale(1 + dir*0.5*s.strength*w))
			src.Sample(q.X, q.Y, &px)
			px[3] = 255
			s.cur.Set(x, y, px)
		}
	}
}

func (s *Session) smooth(src *raster.Image, c geom.Point) {
	x0, y0, x1, y1 := s.bounds(c)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			w := s.strength * s.weight(geom.Pt(float64(x), float64(y)).Sub(c).Len())
			if w == 0 {
				continue
			}
			var sum [3]float64
			n := 0.0
			for yy := max(0, y-1); yy <= min(src.Height-1, y+1); yy++ {
				for xx := max(0, x-1); xx <= min(src.Width-1, x+1); xx++ {
					px := src.At(xx, yy)
					sum[0] += float64(px[0])
					sum[1] += float64(px[1])
					sum[2] += float64(px[2])
					n++
				}
			}
			orig := src.At(x, y)
			var out [4]uint8
			for i := 0; i < 3; i++ {
				out[i] = uint8(math.Round(float64(orig[i])*(1-w) + sum[i]/n*w))
			}
			out[3] = 255
			s.cur.Set(x, y, out)
		}
	}
}
