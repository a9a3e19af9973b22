package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"

	"isitdown/internal/config"
	"isitdown/internal/models"
)

// pipeDrainDelay bounds how long Wait keeps reading output after the probe
// has exited or been killed.
const pipeDrainDelay = time.Second

// CurlProber probes a target by running curl as a child process.
// The target is passed as a single argv entry; no shell is involved.
type CurlProber struct {
	binary       string
	maxRedirects int
	maxTime      time.Duration
	logger       zerolog.Logger
}

// NewCurlProber creates a CurlProber.
func NewCurlProber(cfg config.ProbeConfig, logger zerolog.Logger) *CurlProber {
	binary := cfg.Binary
	if binary == "" {
		binary = "curl"
	}
	return &CurlProber{
		binary:       binary,
		maxRedirects: cfg.MaxRedirects,
		maxTime:      cfg.MaxTime,
		logger:       logger.With().Str("component", "curl_prober").Logger(),
	}
}

// Args returns the full argv used to probe target.
func (p *CurlProber) Args(target models.NormalizedTarget) []string {
	return []string{
		p.binary,
		"-s", "-S", "-L",
		"--max-time", strconv.FormatFloat(p.maxTime.Seconds(), 'f', -1, 64),
		"--max-redirs", strconv.Itoa(p.maxRedirects),
		"-w", curlWriteOut,
		"-o", os.DevNull,
		string(target),
	}
}

// Probe runs curl against target. A non-zero exit status is not an error;
// it is reported in the returned invocation. The child is always waited on
// before Probe returns.
func (p *CurlProber) Probe(ctx context.Context, target models.NormalizedTarget, deadline time.Duration) (*models.ProbeInvocation, error) {
	args := p.Args(target)
	inv := &models.ProbeInvocation{
		Backend:     config.BackendCurl,
		Command:     args,
		CommandLine: shellquote.Join(args...),
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeDrainDelay
	setProcessGroup(cmd)

	p.logger.Debug().Str("command", inv.CommandLine).Msg("starting probe")

	if err := cmd.Start(); err != nil {
		return nil, &InvocationError{Err: fmt.Errorf("failed to start %s: %w", p.binary, err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.logger.Warn().Str("target", string(target)).Dur("deadline", deadline).Msg("probe exceeded deadline")
			return nil, &TimeoutError{Deadline: deadline}
		}
		return nil, &InvocationError{Err: fmt.Errorf("probe cancelled: %w", ctx.Err())}
	case err = <-done:
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &InvocationError{Err: err}
		}
		inv.ExitCode = exitErr.ExitCode()
	}

	inv.Stdout = stdout.String()
	inv.Stderr = stderr.String()
	inv.Completed = true

	p.logger.Debug().Int("exit_code", inv.ExitCode).Msg("probe finished")
	return inv, nil
}
