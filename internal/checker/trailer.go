package checker

import (
	"fmt"
	"time"
)

// Labels of the three trailer lines.
const (
	statusLabel    = "Status:"
	totalTimeLabel = "Total time:"
	finalURLLabel  = "Final URL:"
)

// curlWriteOut asks curl for the trailer. curl expands the \n escapes itself.
const curlWriteOut = `Status: %{http_code}\nTotal time: %{time_total}s\nFinal URL: %{url_effective}\n`

// formatTrailer renders the trailer for backends that are not curl. A zero
// status is written as 000, the way curl reports a failed transfer.
func formatTrailer(status int, elapsed time.Duration, finalURL string) string {
	return fmt.Sprintf("%s %03d\n%s %.6fs\n%s %s\n",
		statusLabel, status,
		totalTimeLabel, elapsed.Seconds(),
		finalURLLabel, finalURL)
}
