package models

import "time"

// RawTarget is the untrusted target string exactly as submitted.
type RawTarget string

// NormalizedTarget is a validated, percent-decoded target that always
// begins with http:// or https://.
type NormalizedTarget string

// ProbeInvocation is the record of one probe run. It belongs to a single
// request and is never shared.
type ProbeInvocation struct {
	Backend     string
	Command     []string
	CommandLine string
	Stdout      string
	Stderr      string
	ExitCode    int
	// Completed is false when the deadline cut the probe short.
	Completed bool
}

// ProbeOutcome is the verdict derived from a ProbeInvocation.
type ProbeOutcome struct {
	HTTPCode       *int
	ElapsedSeconds *float64
	FinalURL       *string
	IsUp           bool
}

// Error kinds reported in PipelineResult.ErrorKind.
const (
	ErrorKindValidation = "validation"
	ErrorKindTimeout    = "timeout"
	ErrorKindInvocation = "invocation"
)

// PipelineResult is the single value returned for every check, whichever
// stage failed.
type PipelineResult struct {
	Target         string    `json:"target"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Command        string    `json:"command"`
	Output         string    `json:"output"`
	Stderr         string    `json:"stderr"`
	ReturnCode     *int      `json:"return_code"` // Pointer to allow for null when no process result is trusted
	IsSiteUp       bool      `json:"is_site_up"`
	HTTPCode       *int      `json:"http_code"`
	ElapsedSeconds *float64  `json:"elapsed_seconds"`
	FinalURL       *string   `json:"final_url"`
	CheckedAt      time.Time `json:"checked_at"`
}
