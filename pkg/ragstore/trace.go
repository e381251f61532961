package ragstore

import (
	"context"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
)

// TraceClient wraps a Client and records every chat round trip to a
// dedicated trace log. Prompts and responses run to kilobytes, so they
// go to their own file instead of drowning the main application log.
type TraceClient struct {
	Client
	trace logger.ILogger
}

func NewTraceClient(inner Client, trace logger.ILogger) *TraceClient {
	return &TraceClient{Client: inner, trace: trace}
}

func (c *TraceClient) Chat(ctx context.Context, slug, prompt string, timeout time.Duration) (string, error) {
	start := time.Now()
	response, err := c.Client.Chat(ctx, slug, prompt, timeout)

	details := map[string]interface{}{
		"workspace":  slug,
		"prompt":     prompt,
		"response":   response,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		details["error"] = err.Error()
		c.trace.Error("chat_trace", "Chat round trip failed", details)
		return response, err
	}
	c.trace.Info("chat_trace", "Chat round trip", details)
	return response, err
}
