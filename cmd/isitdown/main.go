package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"isitdown/internal/api"
	"isitdown/internal/checker"
	"isitdown/internal/config"
	"isitdown/internal/logger"
	"isitdown/internal/models"
	"isitdown/internal/pipeline"
)

// errCheckFailed makes the process exit 1 without printing anything more.
var errCheckFailed = errors.New("check did not complete")

var errEmptyTarget = errors.New("Please enter a target to check!")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	// Canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case flags.Serve:
		return serve(ctx, cfg, p, log)
	case flags.TargetFile != "":
		return checkFile(ctx, cfg, p, flags.TargetFile, stdout, log)
	default:
		return checkOne(ctx, p, flags.Target, stdout)
	}
}

func checkOne(ctx context.Context, c checker.TargetChecker, target string, stdout io.Writer) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errEmptyTarget
	}
	result := c.Check(ctx, models.RawTarget(target))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if !result.Success {
		return errCheckFailed
	}
	return nil
}

func checkFile(ctx context.Context, cfg *config.Config, c checker.TargetChecker, path string, stdout io.Writer, log zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open target file: %w", err)
	}
	defer f.Close()

	targets, err := readTargets(f)
	if err != nil {
		return fmt.Errorf("failed to read target file: %w", err)
	}
	log.Info().Str("file", path).Int("targets", len(targets)).Int("workers", cfg.Batch.Workers).Msg("starting batch")

	enc := json.NewEncoder(stdout)
	for _, result := range checker.CheckAll(ctx, c, targets, cfg.Batch.Workers, log) {
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}

// readTargets returns one target per non-blank line. Lines starting with #
// are comments.
func readTargets(r io.Reader) ([]models.RawTarget, error) {
	var targets []models.RawTarget
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, models.RawTarget(line))
	}
	return targets, scanner.Err()
}

func serve(ctx context.Context, cfg *config.Config, c checker.TargetChecker, log zerolog.Logger) error {
	server := api.NewServer(cfg.Server.HTTPPort, c, log)
	errCh := server.Start()

	log.Info().Str("backend", cfg.Probe.Backend).Msg("application is running")

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, starting graceful shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer shutdownCancel()

	// In-flight checks are allowed to run to their own deadline within the grace period.
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	log.Info().Msg("application shut down gracefully")
	return nil
}
