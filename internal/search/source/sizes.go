package source

import (
	"fmt"
	"math"

	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// FormatFileSize renders a byte count as a human-readable string.
// Unknown or missing sizes render as "Unknown".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return types.UnknownValue
	}

	units := []string{"B", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100

	if value == math.Trunc(value) {
		return fmt.Sprintf("%.0f %s", value, units[i])
	}
	return fmt.Sprintf("%g %s", value, units[i])
}
