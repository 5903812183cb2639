// Package llamacpp runs a local GGUF model through llama.cpp's server and
// talks to it over its OpenAI compatible API.
package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Options struct {
	ModelPath string
	// ServerURL points at an already running llama-server. When empty one
	// is started with Binary on Host:Port.
	ServerURL    string
	Binary       string
	Host         string
	Port         int
	StartTimeout time.Duration
	Config       llm.GenerationConfig
}

type Client struct {
	api    openai.Client
	cfg    llm.GenerationConfig
	model  string
	cmd    *exec.Cmd
	exited <-chan struct{}
	logger *logger_i.Logger
}

// New fails with ErrModelNotFound when the weights file is missing. The
// weights are loaded once, here; Generate only sends prompts.
func New(ctx context.Context, opts Options) (*Client, error) {
	if err := CheckModel(opts.ModelPath); err != nil {
		return nil, err
	}
	applyDefaults(&opts)

	c := &Client{
		cfg:    opts.Config,
		model:  strings.TrimSuffix(filepath.Base(opts.ModelPath), ".gguf"),
		logger: logger_i.NewLogger("llm_llamacpp"),
	}

	baseURL := strings.TrimRight(opts.ServerURL, "/")
	if baseURL == "" {
		cmd, url, exited, err := startServer(opts, c.logger)
		if err != nil {
			return nil, err
		}
		c.cmd, c.exited, baseURL = cmd, exited, url
	}

	httpClient := customHttpClient.NewClient(0)
	// a nil exited channel never fires for external servers
	if err := waitHealthy(ctx, httpClient, baseURL, opts.StartTimeout, c.exited); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.api = openai.NewClient(
		option.WithBaseURL(baseURL+"/v1/"),
		option.WithAPIKey("sk-no-key-required"),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClient),
	)
	c.logger.Info("Model ready", "url", baseURL, "model", c.model)
	return c, nil
}

// CheckModel reports ErrModelNotFound naming path unless it is a regular file.
func CheckModel(path string) error {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ragErrors.ErrModelNotFound, path)
	}
	return nil
}

func applyDefaults(opts *Options) {
	if opts.Binary == "" {
		opts.Binary = config.DefaultLlamaServerBinary
	}
	if opts.Host == "" {
		opts.Host = config.LlamaServerHost
	}
	if opts.Port == 0 {
		opts.Port = config.LlamaServerPort
	}
	if opts.StartTimeout == 0 {
		opts.StartTimeout = config.LlamaServerStartTimeout
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llamacpp_generation", time.Since(start)) }()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(c.cfg.Temperature)),
		TopP:        openai.Float(float64(c.cfg.TopP)),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("llama-server completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llama-server returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Close stops the llama-server process if this client started it.
func (c *Client) Close() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	c.logger.Info("Stopping llama-server")
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	select {
	case <-c.exited:
	case <-time.After(5 * time.Second):
		c.logger.Warn("llama-server did not exit in time")
	}
	return nil
}
