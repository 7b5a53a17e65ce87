package sim

import (
	"fmt"
	"strings"

	"facewarp/internal/skin"
	"facewarp/internal/zones"
)

// Procedure is the aesthetic procedure assigned to a zone. The zero value
// is ProcedureUnset, which Assign rejects.
type Procedure uint8

// Procedures in store order.
const (
	ProcedureUnset Procedure = iota // no procedure chosen
	Toxin                           // botulinum toxin
	Filler                          // dermal filler
	Threads                         // lifting threads
	Biostimulator                   // collagen biostimulator
	Skinbooster                     // hydrating skinbooster
	Enzyme                          // hyaluronidase
)

var procedureNames = [...]string{
	ProcedureUnset: "unset",
	Toxin:          "toxin",
	Filler:         "filler",
	Threads:        "threads",
	Biostimulator:  "biostimulator",
	Skinbooster:    "skinbooster",
	Enzyme:         "enzyme",
}

// String returns the lowercase name used in plan files.
func (p Procedure) String() string {
	if int(p) < len(procedureNames) {
		return procedureNames[p]
	}
	return fmt.Sprintf("procedure(%d)", uint8(p))
}

// Valid reports whether p is one of the named procedures.
func (p Procedure) Valid() bool { return p > ProcedureUnset && int(p) < len(procedureNames) }

// ParseProcedure maps a name to its Procedure. "unset" is not accepted.
func ParseProcedure(s string) (Procedure, error) {
	for i, name := range procedureNames {
		if Procedure(i).Valid() && strings.EqualFold(strings.TrimSpace(s), name) {
			return Procedure(i), nil
		}
	}
	return ProcedureUnset, fmt.Errorf("sim: unknown procedure %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Procedure) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Procedure) UnmarshalText(text []byte) error {
	v, err := ParseProcedure(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Assignment is the procedure committed for one zone.
type Assignment struct {
	Procedure Procedure `json:"procedure" yaml:"procedure"`
	Product   string    `json:"product,omitempty" yaml:"product,omitempty"`
	Dosage    float64   `json:"dosage,omitempty" yaml:"dosage,omitempty"`
	Cost      float64   `json:"cost,omitempty" yaml:"cost,omitempty"`
	// Intensity is 0-100.
	Intensity float64 `json:"intensity" yaml:"intensity"`
	Notes     string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// skin weights per procedure: smooth, brighten.
var procedureSkin = [...][2]float64{
	Toxin:         {0.8, 0.2},
	Filler:        {0.3, 0.2},
	Threads:       {0.2, 0.1},
	Biostimulator: {0.6, 0.5},
	Skinbooster:   {0.7, 0.8},
	Enzyme:        {0.3, 0},
}

func skinZone(def zones.Def, region zones.Region, a Assignment) skin.Zone {
	var w [2]float64
	if int(a.Procedure) < len(procedureSkin) {
		w = procedureSkin[a.Procedure]
	}
	switch def.Behavior {
	case zones.Smooth:
		w[0] += 0.2
	case zones.Brighten:
		w[1] += 0.3
	}
	return skin.Zone{Region: region, Intensity: a.Intensity, Smooth: w[0], Brighten: w[1]}
}
