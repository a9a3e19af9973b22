package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isitdown/internal/models"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    AppFlags
		wantErr string
	}{
		{
			name: "long target",
			args: []string{"-target", "example.com"},
			want: AppFlags{Target: "example.com"},
		},
		{
			name: "aliases",
			args: []string{"-f", "targets.txt", "-c", "isitdown.yaml"},
			want: AppFlags{TargetFile: "targets.txt", ConfigFile: "isitdown.yaml"},
		},
		{
			name: "long form wins over alias",
			args: []string{"-config", "a.yaml", "-c", "b.yaml", "-serve"},
			want: AppFlags{ConfigFile: "a.yaml", Serve: true},
		},
		{
			name:    "no mode",
			args:    []string{"-c", "isitdown.yaml"},
			wantErr: "is required",
		},
		{
			name:    "two modes",
			args:    []string{"-t", "example.com", "-serve"},
			wantErr: "mutually exclusive",
		},
		{
			name:    "unknown flag",
			args:    []string{"-verbose"},
			wantErr: "not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadTargets(t *testing.T) {
	input := "example.com\n\n  # staging hosts\n  https://example.org  \n#https://skipped.example\nexample.net"

	targets, err := readTargets(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []models.RawTarget{"example.com", "https://example.org", "example.net"}, targets)
}

func writeNativeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "isitdown.yaml")
	data := `
probe:
  backend: native
  max_time: 2s
  deadline: 3s
log:
  level: disabled
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestRun_OneShot(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	var stdout bytes.Buffer
	err := run([]string{"-c", writeNativeConfig(t), "-t", upstream.URL}, &stdout)
	require.NoError(t, err)

	var result models.PipelineResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.Success)
	assert.True(t, result.IsSiteUp)
	assert.Equal(t, 204, *result.HTTPCode)
}

func TestRun_OneShotRejectedTargetExitsNonZero(t *testing.T) {
	var stdout bytes.Buffer
	err := run([]string{"-c", writeNativeConfig(t), "-t", "example.com|id"}, &stdout)
	require.ErrorIs(t, err, errCheckFailed)

	var result models.PipelineResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, models.ErrorKindValidation, result.ErrorKind)
}

func TestRun_BatchPreservesInputOrder(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	targetFile := filepath.Join(t.TempDir(), "targets.txt")
	lines := strings.Join([]string{
		"# local upstream",
		upstream.URL + "/down",
		"",
		"example.com;id",
		upstream.URL + "/up",
	}, "\n")
	require.NoError(t, os.WriteFile(targetFile, []byte(lines), 0o644))

	var stdout bytes.Buffer
	err := run([]string{"-c", writeNativeConfig(t), "-f", targetFile}, &stdout)
	require.NoError(t, err, "a batch run succeeds even when single checks fail")

	dec := json.NewDecoder(&stdout)
	var results []models.PipelineResult
	for dec.More() {
		var r models.PipelineResult
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	require.Len(t, results, 3)

	assert.Equal(t, upstream.URL+"/down", results[0].Target)
	assert.False(t, results[0].IsSiteUp)
	assert.Equal(t, 502, *results[0].HTTPCode)

	assert.Equal(t, "example.com;id", results[1].Target)
	assert.False(t, results[1].Success)

	assert.Equal(t, upstream.URL+"/up", results[2].Target)
	assert.True(t, results[2].IsSiteUp)
}

func TestRun_MissingTargetFile(t *testing.T) {
	err := run([]string{"-c", writeNativeConfig(t), "-f", filepath.Join(t.TempDir(), "absent.txt")}, io.Discard)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open target file")
}

type countingChecker struct {
	calls []models.RawTarget
}

func (c *countingChecker) Check(ctx context.Context, raw models.RawTarget) models.PipelineResult {
	c.calls = append(c.calls, raw)
	return models.PipelineResult{Target: string(raw), Success: true}
}

func TestCheckOne_TrimsTarget(t *testing.T) {
	c := &countingChecker{}

	err := checkOne(context.Background(), c, "  example.com \n", io.Discard)

	require.NoError(t, err)
	assert.Equal(t, []models.RawTarget{"example.com"}, c.calls)
}

func TestRun_BlankTargetIsRejectedBeforeChecking(t *testing.T) {
	c := &countingChecker{}
	var stdout bytes.Buffer

	err := checkOne(context.Background(), c, "   ", &stdout)
	require.ErrorIs(t, err, errEmptyTarget)
	assert.Empty(t, c.calls)
	assert.Empty(t, stdout.String())

	err = run([]string{"-c", writeNativeConfig(t), "-t", " \t "}, &stdout)
	require.ErrorIs(t, err, errEmptyTarget)
	assert.EqualError(t, err, "Please enter a target to check!")
	assert.Empty(t, stdout.String())
}
