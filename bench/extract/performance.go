package extract

import (
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"
)

var performancePatterns = []struct {
	column string
	re     *regexp.Regexp
}{
	{"event_loop_time", regexp.MustCompile(`Measured event loop time \[ns\]: ([\d.e+-]+)`)},
	{"time_per_event", regexp.MustCompile(`Time per event \[s\]: ([\d.e+-]+)`)},
	{"throughput", regexp.MustCompile(`Throughput \[1/s\]: ([\d.e+-]+)`)},
}

// Performance reads the timing summary Gaussino prints at the end of a run.
// Each metric is taken from its first occurrence; absent metrics are left out.
func Performance(log string) Result {
	row := Row{}
	for _, p := range performancePatterns {
		m := p.re.FindStringSubmatch(log)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			logrus.Debugf("Ignoring unparsable %s %q", p.column, m[1])
			continue
		}
		row[p.column] = v
	}
	return OneRow(row)
}
