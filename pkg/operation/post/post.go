// Package post provides MCP tools that publish through the caller's browser session.
package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/publish"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Publisher is the part of publish.Service the tools need.
type Publisher interface {
	Publish(ctx context.Context, sess *core.Session, platform core.Platform, req core.PublishRequest) (*core.PublishReceipt, error)
	Platforms() []core.Platform
}

var tweetTool = mcp.NewTool("publish_tweet",
	mcp.WithDescription("Post a tweet with the Twitter account connected to this session"),
	mcp.WithString("text",
		mcp.Description("The tweet text"),
		mcp.Required(),
	),
)

var linkedInTool = mcp.NewTool("publish_linkedin",
	mcp.WithDescription("Share an article on the LinkedIn account connected to this session"),
	mcp.WithString("title",
		mcp.Description("Commentary and article title"),
		mcp.Required(),
	),
	mcp.WithString("description",
		mcp.Description("Article description"),
	),
	mcp.WithString("url",
		mcp.Description("Article URL"),
	),
)

// TweetTool returns the publish_tweet tool bound to svc.
func TweetTool(svc Publisher) server.ServerTool {
	return server.ServerTool{
		Tool: tweetTool,
		Handler: handle(svc, core.PlatformTwitter, func(args map[string]any) core.PublishRequest {
			return core.PublishRequest{Title: stringArg(args, "text")}
		}),
	}
}

// LinkedInTool returns the publish_linkedin tool bound to svc.
func LinkedInTool(svc Publisher) server.ServerTool {
	return server.ServerTool{
		Tool: linkedInTool,
		Handler: handle(svc, core.PlatformLinkedIn, func(args map[string]any) core.PublishRequest {
			return core.PublishRequest{
				Title:       stringArg(args, "title"),
				Description: stringArg(args, "description"),
				URL:         stringArg(args, "url"),
			}
		}),
	}
}

func handle(svc Publisher, platform core.Platform, parse func(map[string]any) core.PublishRequest) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := core.LoggerFromCtx(ctx).With("platform", platform)

		sess, err := core.SessionFromContext(ctx)
		if err != nil {
			return mcp.NewToolResultError("no session: connect an account in the browser first"), nil
		}

		receipt, err := svc.Publish(ctx, sess, platform, parse(request.GetArguments()))
		if err != nil {
			logger.Warn("publish tool failed", "error", err)
			return mcp.NewToolResultError(toolError(platform, err)), nil
		}

		logger.Info("published via tool", "status", receipt.StatusCode)
		return mcp.NewToolResultText(string(receipt.Body)), nil
	}
}

func toolError(platform core.Platform, err error) string {
	var perr *publish.ProviderError
	switch {
	case errors.Is(err, publish.ErrUnauthenticated):
		return fmt.Sprintf("not authenticated for %s", platform)
	case errors.Is(err, publish.ErrMissingTitle):
		return "text is required"
	case errors.As(err, &perr):
		return fmt.Sprintf("%s rejected the post (status %d): %s", platform, perr.StatusCode, perr.JSONBody())
	default:
		return fmt.Sprintf("%s request failed", platform)
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
