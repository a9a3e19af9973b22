package checker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/projectdiscovery/httpx/runner"
	"github.com/rs/zerolog"

	"isitdown/internal/config"
	"isitdown/internal/models"
)

// HTTPXProber probes a target with the httpx engine, in-process. The
// engine's own output is disabled; stdout belongs to the caller.
//
// httpx offers no way to abort an enumeration, so on deadline the engine is
// left to finish on its own timeout; its result is then discarded.
type HTTPXProber struct {
	maxRedirects int
	maxTime      time.Duration
	logger       zerolog.Logger
}

// NewHTTPXProber creates an HTTPXProber.
func NewHTTPXProber(cfg config.ProbeConfig, logger zerolog.Logger) *HTTPXProber {
	return &HTTPXProber{
		maxRedirects: cfg.MaxRedirects,
		maxTime:      cfg.MaxTime,
		logger:       logger.With().Str("component", "httpx_prober").Logger(),
	}
}

func (p *HTTPXProber) options(target models.NormalizedTarget, onResult func(runner.Result)) *runner.Options {
	return &runner.Options{
		Methods:         "GET",
		Silent:          true,
		Timeout:         int(math.Ceil(p.maxTime.Seconds())),
		Retries:         0,
		Threads:         1,
		FollowRedirects: true,
		MaxRedirects:    p.maxRedirects,
		InputTargetHost: []string{string(target)},
		StatusCode:      true,
		OmitBody:        true,
		ChainInStdout:   true,
		HostMaxErrors:   -1,
		DisableStdout:   true,
		NoColor:         true,
		OnResult:        onResult,
	}
}

// Probe runs a single-target enumeration and renders its result as a trailer.
func (p *HTTPXProber) Probe(ctx context.Context, target models.NormalizedTarget, deadline time.Duration) (*models.ProbeInvocation, error) {
	inv := &models.ProbeInvocation{
		Backend:     config.BackendHTTPX,
		Command:     []string{"httpx", "-u", string(target)},
		CommandLine: fmt.Sprintf("httpx -u %s -fr -maxr %d -timeout %d", target, p.maxRedirects, int(math.Ceil(p.maxTime.Seconds()))),
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	results := make(chan runner.Result, 1)
	opts := p.options(target, func(res runner.Result) {
		select {
		case results <- res:
		default:
		}
	})

	httpxRunner, err := runner.New(opts)
	if err != nil {
		return nil, &InvocationError{Err: fmt.Errorf("failed to initialize httpx runner: %w", err)}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer httpxRunner.Close()
		httpxRunner.RunEnumeration()
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.logger.Warn().Str("target", string(target)).Dur("deadline", deadline).Msg("httpx probe exceeded deadline")
			return nil, &TimeoutError{Deadline: deadline}
		}
		return nil, &InvocationError{Err: fmt.Errorf("probe cancelled: %w", ctx.Err())}
	case <-done:
	}

	select {
	case res := <-results:
		fillFromHTTPXResult(inv, res, target)
	default:
		inv.ExitCode = exitTransferFailed
		inv.Stderr = "httpx returned no result\n"
		inv.Stdout = formatTrailer(0, 0, string(target))
	}
	inv.Completed = true
	return inv, nil
}

func fillFromHTTPXResult(inv *models.ProbeInvocation, res runner.Result, target models.NormalizedTarget) {
	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = res.URL
	}
	if finalURL == "" {
		finalURL = string(target)
	}
	inv.Stdout = formatTrailer(res.StatusCode, parseResponseTime(res.ResponseTime), finalURL)
	if res.Error != "" {
		inv.ExitCode = exitTransferFailed
		inv.Stderr = res.Error + "\n"
	}
}

// parseResponseTime accepts httpx's duration strings ("340.5ms", "1.2s") and
// bare seconds.
func parseResponseTime(value string) time.Duration {
	if value == "" {
		return 0
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(strings.TrimSuffix(value, "s"), 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}
