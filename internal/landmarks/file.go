package landmarks

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"facewarp/pkg/raster"
)

// document accepts either {"landmarks": [...]} or a bare list. Each entry is
// an object with x/y/z or a two or three element array.
type document struct {
	Landmarks []point `yaml:"landmarks"`
}

type point Landmark

// UnmarshalYAML accepts either a mapping or an [x, y, z] sequence.
func (p *point) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var xyz []float64
		if err := n.Decode(&xyz); err != nil {
			return err
		}
		if len(xyz) < 2 || len(xyz) > 3 {
			return fmt.Errorf("landmarks: line %d: expected [x, y] or [x, y, z]", n.Line)
		}
		p.X, p.Y = xyz[0], xyz[1]
		if len(xyz) == 3 {
			p.Z = xyz[2]
		}
		return nil
	}
	var lm Landmark
	if err := n.Decode(&lm); err != nil {
		return err
	}
	*p = point(lm)
	return nil
}

// Parse decodes a landmark document. JSON input is accepted since it is a
// subset of YAML. An empty document yields a nil Set.
func Parse(data []byte) (Set, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var raw []point
	if data[0] == '[' || data[0] == '-' {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("landmarks: parse: %w", err)
		}
	} else {
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("landmarks: parse: %w", err)
		}
		raw = doc.Landmarks
	}
	if len(raw) == 0 {
		return nil, nil
	}
	set := make(Set, len(raw))
	for i, p := range raw {
		set[i] = Landmark(p)
	}
	return set, nil
}

// ReadFile parses the landmark document at path.
func ReadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// File is a Detector that re-reads a landmark document on every call, so an
// external detector process can refresh it between runs.
type File struct {
	Path string
}

// Detect reads the file; an empty document is reported as ErrNoFace.
func (f File) Detect(ctx context.Context, _ *raster.Image) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, err := ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, ErrNoFace
	}
	return set, nil
}
