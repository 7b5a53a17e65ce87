package zones

import "fmt"

// Zones are listed by anatomical third, top of the face first. Bilateral
// zones carry the subject's side: _dir is the subject's right, which is the
// left half of a frontal photograph.
var registry = []Def{
	{
		ID: "testa", Name: "Testa", Group: GroupUpper, Behavior: Smooth,
		Region: Region{CX: 0.50, CY: 0.17, RX: 0.20, RY: 0.07}, MaxRX: 0.28, MaxRY: 0.11,
		Landmarks: []int{10, 67, 69, 104, 108, 109, 151, 297, 299, 333, 337, 338},
	},
	{
		ID: "glabela", Name: "Glabela", Group: GroupUpper, Behavior: Smooth,
		Region: Region{CX: 0.50, CY: 0.31, RX: 0.05, RY: 0.035}, MaxRX: 0.08, MaxRY: 0.06,
		Landmarks: []int{8, 9, 55, 107, 168, 285, 336},
	},
	{
		ID: "temporal_dir", Name: "Temporal direita", Group: GroupUpper, Behavior: Volume,
		Region: Region{CX: 0.20, CY: 0.28, RX: 0.05, RY: 0.07}, MaxRX: 0.08, MaxRY: 0.10,
		Landmarks: []int{21, 54, 68, 71, 139, 162},
	},
	{
		ID: "temporal_esq", Name: "Temporal esquerda", Group: GroupUpper, Behavior: Volume,
		Region: Region{CX: 0.80, CY: 0.28, RX: 0.05, RY: 0.07}, MaxRX: 0.08, MaxRY: 0.10,
		Landmarks: []int{251, 284, 298, 301, 368, 389},
	},
	{
		ID: "sobrancelha_dir", Name: "Sobrancelha direita", Group: GroupUpper, Behavior: Lift,
		Region: Region{CX: 0.35, CY: 0.30, RX: 0.09, RY: 0.03}, MaxRX: 0.12, MaxRY: 0.05,
		Landmarks: []int{46, 52, 53, 63, 65, 70, 105},
	},
	{
		ID: "sobrancelha_esq", Name: "Sobrancelha esquerda", Group: GroupUpper, Behavior: Lift,
		Region: Region{CX: 0.65, CY: 0.30, RX: 0.09, RY: 0.03}, MaxRX: 0.12, MaxRY: 0.05,
		Landmarks: []int{276, 282, 283, 293, 295, 300, 334},
	},
	{
		ID: "pes_de_galinha_dir", Name: "Pés de galinha direito", Group: GroupUpper, Behavior: Smooth,
		Region: Region{CX: 0.22, CY: 0.38, RX: 0.04, RY: 0.04}, MaxRX: 0.07, MaxRY: 0.07,
		Landmarks: []int{33, 113, 130, 226, 247},
	},
	{
		ID: "pes_de_galinha_esq", Name: "Pés de galinha esquerdo", Group: GroupUpper, Behavior: Smooth,
		Region: Region{CX: 0.78, CY: 0.38, RX: 0.04, RY: 0.04}, MaxRX: 0.07, MaxRY: 0.07,
		Landmarks: []int{263, 342, 359, 446, 467},
	},
	{
		ID: "olheiras_dir", Name: "Olheira direita", Group: GroupMid, Behavior: Brighten,
		Region: Region{CX: 0.36, CY: 0.43, RX: 0.06, RY: 0.025}, MaxRX: 0.09, MaxRY: 0.045,
		Landmarks: []int{111, 117, 118, 119, 120, 121},
	},
	{
		ID: "olheiras_esq", Name: "Olheira esquerda", Group: GroupMid, Behavior: Brighten,
		Region: Region{CX: 0.64, CY: 0.43, RX: 0.06, RY: 0.025}, MaxRX: 0.09, MaxRY: 0.045,
		Landmarks: []int{340, 346, 347, 348, 349, 350},
	},
	{
		ID: "malar_dir", Name: "Malar direito", Group: GroupMid, Behavior: Volume,
		Region: Region{CX: 0.30, CY: 0.50, RX: 0.07, RY: 0.06}, MaxRX: 0.10, MaxRY: 0.09,
		Landmarks: []int{50, 101, 116, 123, 147, 187, 205},
	},
	{
		ID: "malar_esq", Name: "Malar esquerdo", Group: GroupMid, Behavior: Volume,
		Region: Region{CX: 0.70, CY: 0.50, RX: 0.07, RY: 0.06}, MaxRX: 0.10, MaxRY: 0.09,
		Landmarks: []int{280, 330, 345, 352, 376, 411, 425},
	},
	{
		ID: "nariz", Name: "Nariz", Group: GroupMid, Behavior: Contour,
		Region: Region{CX: 0.50, CY: 0.47, RX: 0.06, RY: 0.10}, MaxRX: 0.08, MaxRY: 0.13,
		Landmarks: []int{1, 4, 5, 6, 48, 64, 129, 195, 197, 278, 294, 358},
	},
	{
		ID: "sulco_nasogeniano_dir", Name: "Sulco nasogeniano direito", Group: GroupMid, Behavior: Volume,
		Region: Region{CX: 0.40, CY: 0.60, RX: 0.035, RY: 0.06}, MaxRX: 0.06, MaxRY: 0.08,
		Landmarks: []int{92, 165, 203, 206, 216},
	},
	{
		ID: "sulco_nasogeniano_esq", Name: "Sulco nasogeniano esquerdo", Group: GroupMid, Behavior: Volume,
		Region: Region{CX: 0.60, CY: 0.60, RX: 0.035, RY: 0.06}, MaxRX: 0.06, MaxRY: 0.08,
		Landmarks: []int{322, 391, 423, 426, 436},
	},
	{
		ID: "terco_medio", Name: "Terço médio", Group: GroupMid, Behavior: Lift,
		Region: Region{CX: 0.50, CY: 0.52, RX: 0.26, RY: 0.10}, MaxRX: 0.32, MaxRY: 0.14,
		Landmarks: []int{36, 50, 101, 123, 187, 205, 266, 280, 330, 352, 411, 425},
	},
	{
		ID: "labios", Name: "Lábios", Group: GroupLower, Behavior: Volume,
		Region: Region{CX: 0.50, CY: 0.70, RX: 0.09, RY: 0.04}, MaxRX: 0.12, MaxRY: 0.06,
		Landmarks: []int{0, 13, 14, 17, 37, 39, 40, 61, 84, 91, 181, 185, 267, 269, 270, 291, 314, 321, 405, 409},
	},
	{
		ID: "bigode_chines_dir", Name: "Bigode chinês direito", Group: GroupLower, Behavior: Volume,
		Region: Region{CX: 0.40, CY: 0.76, RX: 0.03, RY: 0.04}, MaxRX: 0.05, MaxRY: 0.06,
		Landmarks: []int{57, 186, 202, 204, 210, 212},
	},
	{
		ID: "bigode_chines_esq", Name: "Bigode chinês esquerdo", Group: GroupLower, Behavior: Volume,
		Region: Region{CX: 0.60, CY: 0.76, RX: 0.03, RY: 0.04}, MaxRX: 0.05, MaxRY: 0.06,
		Landmarks: []int{287, 410, 422, 424, 430, 432},
	},
	{
		ID: "mento", Name: "Mento", Group: GroupLower, Behavior: Volume,
		Region: Region{CX: 0.50, CY: 0.86, RX: 0.07, RY: 0.045}, MaxRX: 0.10, MaxRY: 0.07,
		Landmarks: []int{148, 152, 175, 176, 199, 200, 377, 400},
	},
	{
		ID: "mandibula_dir", Name: "Mandíbula direita", Group: GroupLower, Behavior: Contour,
		Region: Region{CX: 0.25, CY: 0.72, RX: 0.06, RY: 0.11}, MaxRX: 0.09, MaxRY: 0.15,
		Landmarks: []int{58, 132, 136, 150, 172, 215},
	},
	{
		ID: "mandibula_esq", Name: "Mandíbula esquerda", Group: GroupLower, Behavior: Contour,
		Region: Region{CX: 0.75, CY: 0.72, RX: 0.06, RY: 0.11}, MaxRX: 0.09, MaxRY: 0.15,
		Landmarks: []int{288, 361, 365, 379, 397, 435},
	},
	{
		ID: "papada", Name: "Papada", Group: GroupSubmental, Behavior: Slim,
		Region: Region{CX: 0.50, CY: 0.93, RX: 0.14, RY: 0.05}, MaxRX: 0.18, MaxRY: 0.07,
		Landmarks: []int{140, 148, 152, 169, 171, 175, 176, 377, 394, 396, 400},
	},
	{
		ID: "pescoco", Name: "Pescoço", Group: GroupSubmental, Behavior: Slim,
		Region: Region{CX: 0.50, CY: 0.98, RX: 0.18, RY: 0.03}, MaxRX: 0.24, MaxRY: 0.05,
	},
}

var byID = buildIndex(registry)

func buildIndex(defs []Def) map[string]int {
	idx := make(map[string]int, len(defs))
	for i, d := range defs {
		idx[d.ID] = i
	}
	return idx
}

// All returns every zone definition in registry order. The returned slice
// is a copy and may be modified by the caller.
func All() []Def {
	out := make([]Def, len(registry))
	for i, d := range registry {
		d.Landmarks = append([]int(nil), d.Landmarks...)
		out[i] = d
	}
	return out
}

// ByID looks up a zone definition.
func ByID(id string) (Def, error) {
	i, ok := byID[id]
	if !ok {
		return Def{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	d := registry[i]
	d.Landmarks = append([]int(nil), d.Landmarks...)
	return d, nil
}

// IDs returns the zone ids in registry order.
func IDs() []string {
	ids := make([]string, len(registry))
	for i, d := range registry {
		ids[i] = d.ID
	}
	return ids
}

// Validate checks id uniqueness, positive radii, caps that admit the default
// radii, and landmark indices inside [0, meshSize).
func Validate(defs []Def, meshSize int) error {
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("zones: empty id for %q", d.Name)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("zones: duplicate id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Region.RX <= 0 || d.Region.RY <= 0 {
			return fmt.Errorf("zones: %s: radii must be positive", d.ID)
		}
		if (d.MaxRX > 0 && d.MaxRX < d.Region.RX) || (d.MaxRY > 0 && d.MaxRY < d.Region.RY) {
			return fmt.Errorf("zones: %s: caps smaller than default radii", d.ID)
		}
		for _, i := range d.Landmarks {
			if i < 0 || i >= meshSize {
				return fmt.Errorf("zones: %s: landmark %d outside mesh of %d", d.ID, i, meshSize)
			}
		}
	}
	return nil
}
