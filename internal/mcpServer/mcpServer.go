package mcpServer

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName = "gorag"
	AskTool    = "ask"
)

var logger = logger_i.NewLogger("mcp_server")

type askArgs struct {
	Question string `json:"question" jsonschema:"question to answer from the indexed documents"`
}

// NewServer exposes the query pipeline as a single ask tool.
func NewServer(svc rag.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        AskTool,
		Description: "Answer a question using only the locally indexed documents. Returns the answer followed by its source files.",
	}, askHandler(svc))

	return server
}

func askHandler(svc rag.Service) mcp.ToolHandlerFor[askArgs, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, args askArgs) (*mcp.CallToolResult, any, error) {
		logger.Info("Tool call", "tool", AskTool)

		res, err := svc.AnswerWithSources(ctx, args.Question)
		if err != nil {
			logger.Error("ask failed", "error", err)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			}, nil, nil
		}

		content := []mcp.Content{&mcp.TextContent{Text: res.Answer}}
		if sources := sourceList(res); sources != "" {
			content = append(content, &mcp.TextContent{Text: sources})
		}
		return &mcp.CallToolResult{Content: content}, nil, nil
	}
}

func sourceList(res rag.Response) string {
	seen := make(map[string]bool)
	var b strings.Builder
	for _, sc := range res.Sources {
		if seen[sc.Chunk.SourcePath] {
			continue
		}
		seen[sc.Chunk.SourcePath] = true
		fmt.Fprintf(&b, "- %s\n", sc.Chunk.SourcePath)
	}
	if b.Len() == 0 {
		return ""
	}
	return "Fontes:\n" + b.String()
}

// Serve blocks on stdio until the client disconnects or ctx ends.
func Serve(ctx context.Context, svc rag.Service, version string) error {
	logger.Info("Serving MCP over stdio")
	return NewServer(svc, version).Run(ctx, &mcp.StdioTransport{})
}
