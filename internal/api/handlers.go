package api

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"isitdown/internal/checker"
	"isitdown/internal/models"
)

const emptyTargetMessage = "Please enter a target to check!"

// maxBodyBytes caps the request body; a target is a single short string.
const maxBodyBytes = 64 << 10

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	checker checker.TargetChecker
	logger  zerolog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(c checker.TargetChecker, logger zerolog.Logger) *Handlers {
	return &Handlers{checker: c, logger: logger.With().Str("component", "api").Logger()}
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateCheck runs one check for the submitted target. The body is either
// JSON {"target": "..."} or a form with a "target" field. Failed checks are
// still answered with 200; callers inspect the success flag.
func (h *Handlers) CreateCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	target, err := readTarget(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	target = strings.TrimSpace(target)
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: emptyTargetMessage})
		return
	}

	// A client going away does not cancel the probe; only its deadline does.
	result := h.checker.Check(context.WithoutCancel(r.Context()), models.RawTarget(target))
	writeJSON(w, http.StatusOK, result)
}

func readTarget(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var reqBody struct {
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			return "", err
		}
		return reqBody.Target, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostForm.Get("target"), nil
}

type healthResponse struct {
	Status         string   `json:"status"`
	Processes      *int     `json:"processes,omitempty"`
	Load1          *float64 `json:"load1,omitempty"`
	MemUsedPercent *float64 `json:"mem_used_percent,omitempty"`
}

// Healthz reports liveness along with the host figures that bound how many
// probes can run at once. Figures that cannot be read are omitted.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if pids, err := process.PidsWithContext(r.Context()); err == nil {
		n := len(pids)
		resp.Processes = &n
	} else {
		h.logger.Debug().Err(err).Msg("could not list processes")
	}
	if avg, err := load.AvgWithContext(r.Context()); err == nil {
		resp.Load1 = &avg.Load1
	}
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		resp.MemUsedPercent = &vm.UsedPercent
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
