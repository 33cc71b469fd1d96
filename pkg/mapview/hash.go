package mapview

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// StableRandom maps a place to a value in [0,1) that depends only on its id
// and coordinates, so repeated renders thin the same markers.
// Not collision resistant; do not use it for anything but thinning.
func StableRandom(p Place) float64 {
	var b strings.Builder
	b.WriteString(p.ID)
	b.WriteByte('|')
	if p.Location != nil {
		b.WriteString(strconv.FormatFloat(p.Location.Lat, 'f', -1, 64))
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(p.Location.Lng, 'f', -1, 64))
	}
	h := xxhash.Sum64String(b.String())
	return float64(h>>11) / float64(uint64(1)<<53)
}
