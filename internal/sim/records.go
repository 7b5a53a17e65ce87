package sim

// Record is one row handed to the external procedure store.
type Record struct {
	Session       string  `json:"session"`
	RegionCode    string  `json:"region_code"`
	ProcedureCode string  `json:"procedure_code"`
	Product       string  `json:"product,omitempty"`
	Quantity      float64 `json:"quantity"`
	Notes         string  `json:"notes,omitempty"`
}

// regionCodes translates zone ids to the store's facial region taxonomy.
var regionCodes = map[string]string{
	"testa":                 "FRONTAL",
	"glabela":               "GLABELAR",
	"temporal_dir":          "TEMPORAL_D",
	"temporal_esq":          "TEMPORAL_E",
	"sobrancelha_dir":       "SUPERCILIAR_D",
	"sobrancelha_esq":       "SUPERCILIAR_E",
	"pes_de_galinha_dir":    "PERIORBITAL_LAT_D",
	"pes_de_galinha_esq":    "PERIORBITAL_LAT_E",
	"olheiras_dir":          "INFRAORBITAL_D",
	"olheiras_esq":          "INFRAORBITAL_E",
	"malar_dir":             "ZIGOMATICO_D",
	"malar_esq":             "ZIGOMATICO_E",
	"nariz":                 "NASAL",
	"sulco_nasogeniano_dir": "NASOGENIANO_D",
	"sulco_nasogeniano_esq": "NASOGENIANO_E",
	"terco_medio":           "TERCO_MEDIO",
	"labios":                "LABIAL",
	"bigode_chines_dir":     "MARIONETE_D",
	"bigode_chines_esq":     "MARIONETE_E",
	"mento":                 "MENTONIANO",
	"mandibula_dir":         "MANDIBULAR_D",
	"mandibula_esq":         "MANDIBULAR_E",
	"papada":                "SUBMENTONIANO",
	"pescoco":               "CERVICAL",
}

var procedureCodes = [...]string{
	Toxin:         "TXB",
	Filler:        "PRE",
	Threads:       "FIO",
	Biostimulator: "BIO",
	Skinbooster:   "SKB",
	Enzyme:        "ENZ",
}

// RegionCode returns the store code for a zone id.
func RegionCode(zoneID string) (string, bool) {
	code, ok := regionCodes[zoneID]
	return code, ok
}

// Code returns the store code for the procedure.
func (p Procedure) Code() string {
	if int(p) < len(procedureCodes) {
		return procedureCodes[p]
	}
	return ""
}

// Records lists the active assignments in registry order as store rows.
func (s *Simulator) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.assign))
	for _, def := range s.defs {
		a, ok := s.assign[def.ID]
		if !ok {
			continue
		}
		code, ok := regionCodes[def.ID]
		if !ok {
			code = def.ID
		}
		out = append(out, Record{
			Session:       s.session,
			RegionCode:    code,
			ProcedureCode: a.Procedure.Code(),
			Product:       a.Product,
			Quantity:      a.Dosage,
			Notes:         a.Notes,
		})
	}
	return out
}
