// Package observability holds the tracing helpers shared by the relay's
// HTTP handlers, provider clients and MCP tools.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-training/social-relay/pkg/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/go-training/social-relay"

// Attribute keys used across spans and fallback logs.
const (
	KeyPlatform   = attribute.Key("relay.platform")
	KeyStatusCode = attribute.Key("http.response.status_code")
	KeyOperation  = attribute.Key("relay.operation")
)

// StartSpan starts a span on the relay tracer. With no SDK installed this is a no-op span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AddRequestAttributes sets attributes on the current trace span. If no span
// is recording, the attributes are logged instead, together with any trace and
// span IDs so the line can still be correlated.
func AddRequestAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
		return
	}

	logAttrs := make([]slog.Attr, 0, len(attrs)+3)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(string(attr.Key), attr.Value.AsInterface()))
	}
	logAttrs = append(logAttrs, slog.Bool("observability.fallback", true))
	sc := span.SpanContext()
	if sc.HasTraceID() {
		logAttrs = append(logAttrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		logAttrs = append(logAttrs, slog.String("span_id", sc.SpanID().String()))
	}
	core.LoggerFromCtx(ctx).LogAttrs(ctx, slog.LevelDebug, "request attributes", logAttrs...)
}

// ToolHandlerMiddleware records tool name, outcome and duration for every MCP tool call.
// Tool arguments are not recorded since they carry user content.
func ToolHandlerMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, span := StartSpan(ctx, "mcp.tool "+req.Params.Name,
				attribute.String("mcp.tool", req.Params.Name),
			)
			start := time.Now()

			res, err := next(ctx, req)

			status := "ok"
			var errMsg string
			switch {
			case err != nil:
				status = "error"
				errMsg = err.Error()
			case res != nil && res.IsError:
				status = "error"
				errMsg = toolErrorText(res)
			}
			attrs := []attribute.KeyValue{
				KeyOperation.String(req.Params.Name),
				attribute.String("mcp.status", status),
				attribute.Float64("mcp.duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			}
			if errMsg != "" {
				attrs = append(attrs, attribute.String("mcp.error", errMsg))
			}
			AddRequestAttributes(ctx, attrs...)
			EndSpan(span, err)

			return res, err
		}
	}
}

func toolErrorText(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return "unknown error with no content"
	}
	if txt, ok := res.Content[0].(mcp.TextContent); ok {
		return txt.Text
	}
	return fmt.Sprintf("unknown error with content type %T", res.Content[0])
}
