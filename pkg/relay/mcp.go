package relay

import (
	"context"
	"net/http"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/observability"
	"github.com/go-training/social-relay/pkg/operation"

	"github.com/mark3labs/mcp-go/server"
)

// mcpServer exposes the publish tools over streamable HTTP. Tool calls act on
// the browser session named by the request cookie.
func (a *App) mcpServer() *server.StreamableHTTPServer {
	mcpServer := server.NewMCPServer(
		"social-relay",
		Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(observability.ToolHandlerMiddleware()),
	)
	operation.RegisterRelayTools(mcpServer, a.Publisher)

	return server.NewStreamableHTTPServer(mcpServer,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			ctx = core.WithRequestID(ctx)
			sess, err := a.Sessions.Load(ctx, r)
			if err != nil {
				core.LoggerFromCtx(ctx).Error("failed to load session for mcp", "error", err)
				return ctx
			}
			return core.WithSession(ctx, sess)
		}),
	)
}
