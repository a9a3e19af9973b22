package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"isitdown/internal/config"
	"isitdown/internal/models"
)

// Exit codes reported by NativeProber, borrowed from curl so callers can
// read them the same way.
const (
	exitTransferFailed = 1
	exitTimedOut       = 28
	exitTooManyRedirs  = 47
)

var errTooManyRedirects = errors.New("maximum redirects followed")

// NativeProber probes a target in-process with net/http.
type NativeProber struct {
	httpClient   *http.Client
	maxRedirects int
	maxTime      time.Duration
	logger       zerolog.Logger
}

// NewNativeProber creates a NativeProber with HTTP/2 enabled.
func NewNativeProber(cfg config.ProbeConfig, logger zerolog.Logger) *NativeProber {
	logger = logger.With().Str("component", "native_prober").Logger()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSHandshakeTimeout: cfg.MaxTime,
		DisableKeepAlives:   true,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Warn().Err(err).Msg("failed to configure HTTP/2, falling back to HTTP/1.1")
	}

	maxRedirects := cfg.MaxRedirects
	return &NativeProber{
		maxRedirects: maxRedirects,
		maxTime:      cfg.MaxTime,
		logger:       logger,
		httpClient: &http.Client{
			Timeout:   cfg.MaxTime,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w (%d)", errTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
	}
}

// Probe performs a GET against target and discards the body. Transport
// failures are reported through Stderr and a non-zero exit code; the
// trailer status is 000 when no response arrived at all.
func (p *NativeProber) Probe(ctx context.Context, target models.NormalizedTarget, deadline time.Duration) (*models.ProbeInvocation, error) {
	inv := &models.ProbeInvocation{
		Backend:     config.BackendNative,
		Command:     []string{http.MethodGet, string(target)},
		CommandLine: fmt.Sprintf("GET %s (max redirects %d, max time %s)", target, p.maxRedirects, p.maxTime),
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, string(target), nil)
	if err != nil {
		return nil, &InvocationError{Err: fmt.Errorf("failed to build request: %w", err)}
	}

	start := time.Now()
	status := 0
	finalURL := string(target)

	// On a redirect-limit error Do still returns the last response.
	resp, err := p.httpClient.Do(req)
	if resp != nil {
		status = resp.StatusCode
		finalURL = resp.Request.URL.String()
		if err == nil {
			_, err = io.Copy(io.Discard, resp.Body)
		}
		resp.Body.Close()
	}
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Deadline: deadline}
		}
		return nil, &InvocationError{Err: fmt.Errorf("probe cancelled: %w", ctx.Err())}
	}

	if err != nil {
		inv.ExitCode = exitCodeFor(err)
		inv.Stderr = err.Error() + "\n"
		p.logger.Debug().Err(err).Str("target", string(target)).Msg("native probe failed")
	}

	inv.Stdout = formatTrailer(status, elapsed, finalURL)
	inv.Completed = true
	return inv, nil
}

func exitCodeFor(err error) int {
	var netErr net.Error
	switch {
	case errors.Is(err, errTooManyRedirects):
		return exitTooManyRedirs
	case errors.As(err, &netErr) && netErr.Timeout():
		return exitTimedOut
	default:
		return exitTransferFailed
	}
}
