package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/adept-bench/benchctl/bench/units"
)

// physicsPattern keeps a benchmark's hit-line regexp next to the code that
// turns its submatches into a row.
type physicsPattern struct {
	benchmark string
	aliases   []string
	re        *regexp.Regexp
	build     func(m []string) (Row, error)
}

var physicsPatterns = []physicsPattern{
	{
		benchmark: "B4LayeredCalorimeter",
		aliases:   []string{"b4_layered_calorimeter"},
		re: regexp.MustCompile(
			`Edep:\s*([\d.eE+-]+)\s*([a-zA-Z]+)\s*track length:\s*([\d.eE+-]+)\s*([a-zA-Z]+)\s+` +
				`sensitive detector:\s*(B4Calorimeter_Layer_AbsorberSDet|B4Calorimeter_Layer_GapSDet)\s+` +
				`layer number:\s*(-?\d+)\s*eventID:\s*(\d+)`),
		build: func(m []string) (Row, error) {
			var p rowParser
			row := Row{
				"edep_value":         p.float(m[1]),
				"edep_unit":          m[2],
				"track_length_value": p.float(m[3]),
				"track_length_unit":  m[4],
				"detector":           m[5],
				"layer_number":       p.int(m[6]),
				"event_id":           p.int(m[7]),
			}
			if p.err != nil {
				return nil, p.err
			}
			normalize(row, "edep_mev", row["edep_value"].(float64), m[2], "MeV", "eV")
			normalize(row, "track_length_mm", row["track_length_value"].(float64), m[4], "mm", "m")
			return row, nil
		},
	},
	{
		benchmark: "B2ChamberTracker",
		aliases:   []string{"b2_chamber_tracker"},
		re: regexp.MustCompile(
			`SUCCESS\s*\[\s*Worker\s*#(\d+)\s*\]\s*#Hits=\s*(\d+)\s*Energy=\s*([\d.eE+-]+)\[(\w+)\]\s*` +
				`#Particles=\s*(\d+)\s*in\s*(ExternalDetectorEmbedder_Chamber_\d+SDet)\s*for\s*event\s*with\s*id:\s*(\d+)`),
		build: func(m []string) (Row, error) {
			var p rowParser
			row := Row{
				"worker_id":           p.int(m[1]),
				"number_of_hits":      p.int(m[2]),
				"energy_value":        p.float(m[3]),
				"energy_unit":         m[4],
				"number_of_particles": p.int(m[5]),
				"detector":            m[6],
				"event_id":            p.int(m[7]),
			}
			if p.err != nil {
				return nil, p.err
			}
			normalize(row, "energy_mev", row["energy_value"].(float64), m[4], "MeV", "eV")
			return row, nil
		},
	},
}

// extract emits one row per matching line.
func (p physicsPattern) extract(log string) Result {
	var rows []Row
	for _, line := range strings.Split(log, "\n") {
		m := p.re.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		if m == nil {
			continue
		}
		row, err := p.build(m)
		if err != nil {
			logrus.Debugf("%s: skipping line %q: %v", p.benchmark, line, err)
			continue
		}
		rows = append(rows, row)
	}
	return ManyRows(rows)
}

// normalize stores value converted to target under column, leaving the
// column out when the unit is not a prefixed form of base.
func normalize(row Row, column string, value float64, unit, target, base string) {
	v, err := units.ConvertFloat(value, unit, target, base)
	if err != nil {
		logrus.Debugf("No %s for %v %s: %v", column, value, unit, err)
		return
	}
	row[column] = v
}

// rowParser records the first numeric parse failure.
type rowParser struct{ err error }

func (p *rowParser) float(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *rowParser) int(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}
