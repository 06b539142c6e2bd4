package drillhole

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/dpup/downhole/internal/lib/survey"
)

// Fingerprint creates a content hash of a hole's collar and station sequence.
// Values are formatted at millimetre precision so float noise below the
// output rounding does not change the hash. Attributes are not included.
func Fingerprint(collar survey.Collar, stations survey.Stations) string {
	var b strings.Builder
	b.WriteString(formatKey(collar.X, collar.Y, collar.Z))
	for _, st := range stations.List() {
		b.WriteByte('|')
		b.WriteString(formatKey(st.Depth, st.Azimuth, st.Dip))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}

func formatKey(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(parts, ",")
}
