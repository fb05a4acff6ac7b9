package llm

import (
	"context"

	"github.com/firebase/genkit/go/ai"
)

// NOTE: LLM requests/responses can be inspected in the Genkit Dev UI:
// genkit start -- go run ./cmd

// RetryMiddleware wraps every model call of a generate request with the rate-limit retry policy
func RetryMiddleware(policy RetryPolicy) ai.ModelMiddleware {
	return func(next ai.ModelFunc) ai.ModelFunc {
		return func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			return Retry(ctx, policy, func(ctx context.Context) (*ai.ModelResponse, error) {
				return next(ctx, req, cb)
			})
		}
	}
}
