package sim

import (
	"facewarp/internal/zones"
)

// ZoneState returns the current region of a zone.
func (s *Simulator) ZoneState(id string) (zones.Region, error) {
	if _, err := s.def(id); err != nil {
		return zones.Region{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[id], nil
}

// Move recentres a zone. Coordinates are clamped to the image.
func (s *Simulator) Move(id string, cx, cy float64) error {
	if _, err := s.def(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.state[id]
	r.CX, r.CY = clamp01(cx), clamp01(cy)
	s.state[id] = r
	s.gen++
	return nil
}

// Resize sets a zone's radii, bounded by its caps and zones.MinRadius.
func (s *Simulator) Resize(id string, rx, ry float64) error {
	d, err := s.def(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.state[id]
	r.RX, r.RY = d.ClampRadii(rx, ry)
	s.state[id] = r
	s.gen++
	return nil
}

// ResetZone re-aligns one zone to the current landmarks, or its default
// region when there are none.
func (s *Simulator) ResetZone(id string) error {
	d, err := s.def(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[id] = zones.Align(d, s.lm)
	s.gen++
	return nil
}

// ResetZones re-aligns every zone.
func (s *Simulator) ResetZones() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.defs {
		s.state[d.ID] = zones.Align(d, s.lm)
	}
	s.gen++
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
