package checker

import (
	"math"
	"strconv"
	"strings"

	"isitdown/internal/models"
)

// Parse extracts the trailer fields from a probe's stdout.
//
// Every field is optional. A malformed value is treated as absent rather
// than failing the check, and only the first well-formed Status line counts.
// A target is up when its status is in [200, 400), or, with no status at all,
// when the probe exited with code 0.
func Parse(inv *models.ProbeInvocation) models.ProbeOutcome {
	var out models.ProbeOutcome
	if inv == nil {
		return out
	}

	for _, line := range strings.Split(inv.Stdout, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, statusLabel):
			if out.HTTPCode != nil {
				continue
			}
			code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, statusLabel)))
			if err != nil {
				continue
			}
			out.HTTPCode = &code

		case strings.HasPrefix(line, totalTimeLabel):
			if out.ElapsedSeconds != nil {
				continue
			}
			value := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, totalTimeLabel)), "s")
			secs, err := strconv.ParseFloat(value, 64)
			if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
				continue
			}
			out.ElapsedSeconds = &secs

		case strings.HasPrefix(line, finalURLLabel):
			if out.FinalURL != nil {
				continue
			}
			if u := strings.TrimSpace(strings.TrimPrefix(line, finalURLLabel)); u != "" {
				out.FinalURL = &u
			}
		}
	}

	if out.HTTPCode != nil {
		out.IsUp = *out.HTTPCode >= 200 && *out.HTTPCode < 400
	} else {
		out.IsUp = inv.ExitCode == 0
	}
	return out
}
