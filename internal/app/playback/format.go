package playback

import (
	"fmt"
	"math"
)

// maxSeconds is the first value that no longer fits in an int64.
const maxSeconds = float64(math.MaxInt64)

// FormatTime renders seconds as m:ss. Unknown values (NaN, infinities,
// negatives and anything too large for an int64) render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds >= maxSeconds {
		return "0:00"
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
