package llm

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/ai"
	log "github.com/sirupsen/logrus"
)

// LoggingMiddleware logs every model call with its latency.
// Calls are never retried: a failure is reported to the user as is.
func LoggingMiddleware(model string) ai.ModelMiddleware {
	return func(next ai.ModelFunc) ai.ModelFunc {
		return func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req, cb)

			entry := log.WithFields(log.Fields{
				"model":    model,
				"messages": len(req.Messages),
				"duration": time.Since(start).Round(time.Millisecond),
			})
			if err != nil {
				entry.Warnf("❌ LLM call failed: %v", err)
				return nil, err
			}
			entry.Info("🤖 LLM call complete")
			return resp, nil
		}
	}
}
