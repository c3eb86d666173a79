// Package status provides the session_status MCP tool.
package status

import (
	"context"
	"encoding/json"

	"github.com/go-training/social-relay/pkg/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var sessionStatusTool = mcp.NewTool("session_status",
	mcp.WithDescription("Show which platforms are connected in this session"),
)

// SessionStatusTool reports, for each of platforms, whether the session holds a token.
// Tokens themselves are never returned.
func SessionStatusTool(platforms []core.Platform) server.ServerTool {
	return server.ServerTool{
		Tool: sessionStatusTool,
		Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			connected := make(map[core.Platform]bool, len(platforms))
			if sess, err := core.SessionFromContext(ctx); err == nil {
				connected = sess.Connected(platforms...)
			} else {
				for _, p := range platforms {
					connected[p] = false
				}
			}

			data, err := json.Marshal(map[string]any{"platforms": connected})
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(string(data)), nil
		},
	}
}
