package health

import "sort"

// classifyBand walks the configured bands in descending Min order and
// returns the first whose Min the score meets or exceeds. The default
// band set always matches because the lowest band has Min 0; with a fully
// overridden set that leaves a gap, the lowest band is returned rather
// than nothing.
func classifyBand(score float64, bands []Band) Band {
	if len(bands) == 0 {
		return Band{Name: "unknown", Color: "gray", Priority: -1}
	}
	ordered := append([]Band(nil), bands...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Min > ordered[j].Min
	})
	for _, b := range ordered {
		if score >= b.Min {
			return b
		}
	}
	return ordered[len(ordered)-1]
}
