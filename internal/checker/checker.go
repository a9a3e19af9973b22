// Package checker runs reachability probes against normalized targets and
// turns their output into a verdict.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"isitdown/internal/config"
	"isitdown/internal/models"
)

// Prober runs one probe against a target. Implementations must return
// within deadline, and must not leave a child process behind when they do.
// Every backend writes the same trailer to Stdout so Parse works unchanged.
type Prober interface {
	Probe(ctx context.Context, target models.NormalizedTarget, deadline time.Duration) (*models.ProbeInvocation, error)
}

// TimeoutError is returned when a probe exceeds its wall-clock deadline.
// No output from the cut-short probe is kept.
type TimeoutError struct {
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Deadline%time.Second == 0 {
		return fmt.Sprintf("Command timed out after %d seconds", int(e.Deadline/time.Second))
	}
	return fmt.Sprintf("Command timed out after %s", e.Deadline)
}

// InvocationError is returned when a probe could not be started or failed
// in an unexpected way.
type InvocationError struct {
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("Unexpected error: %v", e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// NewProber creates the Prober selected by cfg.Backend.
func NewProber(cfg config.ProbeConfig, logger zerolog.Logger) (Prober, error) {
	switch cfg.Backend {
	case config.BackendCurl, "":
		return NewCurlProber(cfg, logger), nil
	case config.BackendNative:
		return NewNativeProber(cfg, logger), nil
	case config.BackendHTTPX:
		return NewHTTPXProber(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown probe backend %q", cfg.Backend)
	}
}
