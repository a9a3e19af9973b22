// Package pipeline ties validation, normalization, probing and parsing into
// one check per target.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"isitdown/internal/checker"
	"isitdown/internal/config"
	"isitdown/internal/models"
	"isitdown/internal/urlutil"
)

// Validator rejects unsafe raw targets.
type Validator interface {
	Validate(raw models.RawTarget) error
}

// Pipeline checks raw targets. It holds no per-request state and is safe
// for concurrent use.
type Pipeline struct {
	validator Validator
	prober    checker.Prober
	deadline  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a Pipeline from explicit dependencies.
func New(validator Validator, prober checker.Prober, deadline time.Duration, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		validator: validator,
		prober:    prober,
		deadline:  deadline,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
	}
}

// FromConfig builds the Pipeline described by cfg.
func FromConfig(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	prober, err := checker.NewProber(cfg.Probe, logger)
	if err != nil {
		return nil, err
	}
	validator := urlutil.NewValidator(cfg.Validation.Denylist, cfg.Validation.DecodeBeforeValidate)
	return New(validator, prober, cfg.Probe.Deadline, logger), nil
}

// Check runs every stage for raw in order and returns one result. It never
// returns an error: every failure is folded into the result.
func (p *Pipeline) Check(ctx context.Context, raw models.RawTarget) models.PipelineResult {
	checkedAt := p.now().UTC()
	log := p.logger.With().Str("target", string(raw)).Logger()
	log.Info().Msg("checking target")

	if err := p.validator.Validate(raw); err != nil {
		log.Warn().Err(err).Msg("target rejected")
		return assemble(raw, checkedAt, nil, models.ProbeOutcome{}, err)
	}

	target := urlutil.Normalize(raw)

	inv, err := p.prober.Probe(ctx, target, p.deadline)
	if err == nil && inv == nil {
		err = &checker.InvocationError{Err: errors.New("probe returned no result")}
	}
	if err != nil {
		log.Error().Err(err).Msg("probe failed")
		return assemble(raw, checkedAt, nil, models.ProbeOutcome{}, err)
	}

	outcome := checker.Parse(inv)
	log.Info().
		Bool("is_up", outcome.IsUp).
		Int("exit_code", inv.ExitCode).
		Msg("check finished")
	return assemble(raw, checkedAt, inv, outcome, nil)
}
