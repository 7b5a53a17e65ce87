package app

import (
	"fmt"
	"math"

	"facewarp/internal/landmarks"
	"facewarp/internal/render"
	"facewarp/internal/sim"
	"facewarp/pkg/geom"
)

// Config sizes the preview window.
type Config struct {
	MaxWidth   int
	MaxHeight  int
	PanelWidth int
	// RequestRate caps HUD-driven recompute requests per second.
	RequestRate int
	// ExportPath is where the E key writes the current frame.
	ExportPath string
}

// DefaultConfig returns the window defaults.
func DefaultConfig() Config {
	return Config{
		MaxWidth:    960,
		MaxHeight:   960,
		PanelWidth:  280,
		RequestRate: 10,
		ExportPath:  "facewarp-export.png",
	}
}

// viewport maps between frame pixels and screen pixels.
type viewport struct {
	scale float64
	w, h  int
}

// fitView scales a w x h frame down to fit maxW x maxH. It never enlarges.
func fitView(w, h, maxW, maxH int) viewport {
	s := 1.0
	if maxW > 0 && w > maxW {
		s = math.Min(s, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		s = math.Min(s, float64(maxH)/float64(h))
	}
	return viewport{
		scale: s,
		w:     max(1, int(math.Round(float64(w)*s))),
		h:     max(1, int(math.Round(float64(h)*s))),
	}
}

// toFrame converts a screen position to frame coordinates.
func (v viewport) toFrame(x, y int) geom.Point {
	return geom.Pt(float64(x)/v.scale, float64(y)/v.scale)
}

// inside reports whether screen position (x, y) lies on the frame.
func (v viewport) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < v.w && y < v.h
}

// simSource adapts a Simulator to the overlay.
type simSource struct{ s *sim.Simulator }

// Landmarks returns the simulator's current mesh.
func (src simSource) Landmarks() landmarks.Set { return src.s.Landmarks() }

// Generation returns the simulator's input generation.
func (src simSource) Generation() uint64 { return src.s.Generation() }

// Outlines lists every zone's current region, marking assigned zones active.
func (src simSource) Outlines() []render.ZoneOutline {
	assigned := src.s.Assignments()
	defs := src.s.Zones()
	out := make([]render.ZoneOutline, 0, len(defs))
	for _, d := range defs {
		r, err := src.s.ZoneState(d.ID)
		if err != nil {
			continue
		}
		_, active := assigned[d.ID]
		out = append(out, render.ZoneOutline{Region: r, Group: d.Group, Active: active})
	}
	return out
}

type status struct {
	sculpting bool
	tool      string
	brush     float64
	undo      int
	gen       uint64
	frameGen  uint64
	note      string
}

// String renders the one or two line status overlay.
func (st status) String() string {
	var line string
	if st.sculpting {
		line = fmt.Sprintf("SCULPT %s  brush %.0f  undo %d  [T]ool [ ] size [Z]undo [S] done", st.tool, st.brush, st.undo)
	} else {
		line = fmt.Sprintf("gen %d  frame %d  [1]zones [2]landmarks [S]culpt [E]xport [Q]uit", st.gen, st.frameGen)
		if st.frameGen < st.gen {
			line += "  rendering..."
		}
	}
	if st.note != "" {
		line += "\n" + st.note
	}
	return line
}
