package llamacpp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strconv"
	"time"

	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const healthPollInterval = 500 * time.Millisecond

// startServer launches llama-server for the model and returns its base URL.
// exited is closed when the process ends.
func startServer(opts Options, log *logger_i.Logger) (*exec.Cmd, string, <-chan struct{}, error) {
	binary, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, "", nil, fmt.Errorf("llama-server binary %q not found: %w", opts.Binary, err)
	}

	cmd := exec.Command(binary,
		"-m", opts.ModelPath,
		"-c", strconv.Itoa(opts.Config.ContextSize),
		"-ngl", strconv.Itoa(opts.Config.GPULayers),
		"--host", opts.Host,
		"--port", strconv.Itoa(opts.Port),
	)
	out := &lineLogger{log: log}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, "", nil, fmt.Errorf("starting llama-server: %w", err)
	}
	log.Info("llama-server started", "pid", cmd.Process.Pid, "model", opts.ModelPath)

	exited := make(chan struct{})
	go func() {
		err := cmd.Wait()
		log.Info("llama-server exited", "error", err)
		close(exited)
	}()
	return cmd, fmt.Sprintf("http://%s:%d", opts.Host, opts.Port), exited, nil
}

// waitHealthy polls /health until the model is loaded. llama-server answers
// 503 while it is still loading weights.
func waitHealthy(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration, exited <-chan struct{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		if healthy(ctx, client, baseURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("llama-server at %s not ready: %w", baseURL, ctx.Err())
		case <-exited:
			return fmt.Errorf("llama-server exited before becoming ready")
		case <-ticker.C:
		}
	}
}

func healthy(ctx context.Context, client *http.Client, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type lineLogger struct {
	log *logger_i.Logger
}

func (l *lineLogger) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) > 0 {
			l.log.Debug("llama-server", "line", string(line))
		}
	}
	return len(p), nil
}
