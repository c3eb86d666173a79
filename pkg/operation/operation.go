// Package operation registers the relay's MCP tools.
package operation

import (
	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/operation/post"
	"github.com/go-training/social-relay/pkg/operation/status"

	"github.com/mark3labs/mcp-go/server"
)

// RegisterRelayTools adds one post tool per platform svc can publish to,
// plus the session status tool.
func RegisterRelayTools(s *server.MCPServer, svc post.Publisher) {
	tool := &Tool{}

	for _, p := range svc.Platforms() {
		switch p {
		case core.PlatformTwitter:
			tool.RegisterWrite(post.TweetTool(svc))
		case core.PlatformLinkedIn:
			tool.RegisterWrite(post.LinkedInTool(svc))
		}
	}
	tool.RegisterRead(status.SessionStatusTool(svc.Platforms()))

	s.AddTools(tool.Tools()...)
}

// Tool collects tools to be registered with an MCPServer, split by whether
// they change anything outside the relay.
type Tool struct {
	write []server.ServerTool
	read  []server.ServerTool
}

// RegisterWrite registers a tool with external side effects.
func (t *Tool) RegisterWrite(s server.ServerTool) {
	t.write = append(t.write, s)
}

// RegisterRead registers a side-effect free tool.
func (t *Tool) RegisterRead(s server.ServerTool) {
	t.read = append(t.read, s)
}

// Tools returns all registered tools, write tools first.
func (t *Tool) Tools() []server.ServerTool {
	tools := make([]server.ServerTool, 0, len(t.write)+len(t.read))
	tools = append(tools, t.write...)
	tools = append(tools, t.read...)
	return tools
}
