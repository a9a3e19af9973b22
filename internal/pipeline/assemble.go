package pipeline

import (
	"errors"
	"time"

	"isitdown/internal/checker"
	"isitdown/internal/models"
	"isitdown/internal/urlutil"
)

// assemble folds a probe result or a stage failure into a PipelineResult.
// On failure only the error fields are set; every probe field keeps its
// zero value.
func assemble(raw models.RawTarget, checkedAt time.Time, inv *models.ProbeInvocation, outcome models.ProbeOutcome, err error) models.PipelineResult {
	result := models.PipelineResult{
		Target:    string(raw),
		CheckedAt: checkedAt,
	}

	if err != nil {
		result.ErrorKind = errorKind(err)
		result.Error = err.Error()
		var invocationErr *checker.InvocationError
		if result.ErrorKind == models.ErrorKindInvocation && !errors.As(err, &invocationErr) {
			result.Error = (&checker.InvocationError{Err: err}).Error()
		}
		return result
	}

	exitCode := inv.ExitCode
	result.Success = true
	result.Command = inv.CommandLine
	result.Output = inv.Stdout
	result.Stderr = inv.Stderr
	result.ReturnCode = &exitCode
	result.IsSiteUp = outcome.IsUp
	result.HTTPCode = outcome.HTTPCode
	result.ElapsedSeconds = outcome.ElapsedSeconds
	result.FinalURL = outcome.FinalURL
	return result
}

func errorKind(err error) string {
	var validationErr *urlutil.ValidationError
	var timeoutErr *checker.TimeoutError
	switch {
	case errors.As(err, &validationErr):
		return models.ErrorKindValidation
	case errors.As(err, &timeoutErr):
		return models.ErrorKindTimeout
	default:
		return models.ErrorKindInvocation
	}
}
