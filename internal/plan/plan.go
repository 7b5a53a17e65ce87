// Package plan reads procedure plan files: the zone assignments for one
// photo plus optional manual zone adjustments.
//
//	image: face.jpg
//	landmarks: face.landmarks.yaml
//	assignments:
//	  - zone: testa
//	    procedure: toxin
//	    intensity: 60
//	    dosage: 20
//	zones:
//	  mento: {cy: 0.86}
//
// JSON plans work too since JSON is valid YAML.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"facewarp/internal/sim"
	"facewarp/internal/zones"
)

// ErrInvalid wraps every semantic problem found in a plan.
var ErrInvalid = errors.New("plan: invalid")

// Entry assigns a procedure to one zone.
type Entry struct {
	Zone           string `yaml:"zone" json:"zone"`
	sim.Assignment `yaml:",inline"`
}

// Override adjusts a zone's region; unset fields keep the aligned value.
type Override struct {
	CX *float64 `yaml:"cx,omitempty" json:"cx,omitempty"`
	CY *float64 `yaml:"cy,omitempty" json:"cy,omitempty"`
	RX *float64 `yaml:"rx,omitempty" json:"rx,omitempty"`
	RY *float64 `yaml:"ry,omitempty" json:"ry,omitempty"`
}

// Plan is a decoded plan file. Image and Landmarks are resolved against the
// plan's directory by Load.
type Plan struct {
	Image       string              `yaml:"image,omitempty" json:"image,omitempty"`
	Landmarks   string              `yaml:"landmarks,omitempty" json:"landmarks,omitempty"`
	Assignments []Entry             `yaml:"assignments" json:"assignments"`
	Zones       map[string]Override `yaml:"zones,omitempty" json:"zones,omitempty"`
}

// Decode parses and validates a plan.
func Decode(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return &p, nil
		}
		return nil, fmt.Errorf("plan: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: read %q: %w", path, err)
	}
	p, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	p.Image = resolve(dir, p.Image)
	p.Landmarks = resolve(dir, p.Landmarks)
	return p, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate checks zone ids, procedures, intensities and duplicate assignments.
func (p *Plan) Validate() error {
	seen := make(map[string]bool, len(p.Assignments))
	for i, e := range p.Assignments {
		if _, err := zones.ByID(e.Zone); err != nil {
			return fmt.Errorf("%w: assignment %d: unknown zone %q", ErrInvalid, i, e.Zone)
		}
		if seen[e.Zone] {
			return fmt.Errorf("%w: zone %q assigned twice", ErrInvalid, e.Zone)
		}
		seen[e.Zone] = true
		if !e.Procedure.Valid() {
			return fmt.Errorf("%w: zone %q: missing procedure", ErrInvalid, e.Zone)
		}
		if e.Intensity < 0 || e.Intensity > 100 {
			return fmt.Errorf("%w: zone %q: intensity %g outside [0,100]", ErrInvalid, e.Zone, e.Intensity)
		}
	}
	for id := range p.Zones {
		if _, err := zones.ByID(id); err != nil {
			return fmt.Errorf("%w: override for unknown zone %q", ErrInvalid, id)
		}
	}
	return nil
}

// Apply replaces the simulator's assignments with the plan's and applies
// the zone overrides on top of the current regions.
func (p *Plan) Apply(s *sim.Simulator) error {
	for id := range s.Assignments() {
		s.Remove(id)
	}
	for _, e := range p.Assignments {
		if err := s.Assign(e.Zone, e.Assignment); err != nil {
			return fmt.Errorf("plan: zone %q: %w", e.Zone, err)
		}
	}
	for id, o := range p.Zones {
		r, err := s.ZoneState(id)
		if err != nil {
			return fmt.Errorf("plan: zone %q: %w", id, err)
		}
		if o.CX != nil || o.CY != nil {
			if err := s.Move(id, pick(o.CX, r.CX), pick(o.CY, r.CY)); err != nil {
				return err
			}
		}
		if o.RX != nil || o.RY != nil {
			if err := s.Resize(id, pick(o.RX, r.RX), pick(o.RY, r.RY)); err != nil {
				return err
			}
		}
	}
	return nil
}

func pick(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// Encode writes p as YAML.
func Encode(w io.Writer, p *Plan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("plan: encode: %w", err)
	}
	return enc.Close()
}
