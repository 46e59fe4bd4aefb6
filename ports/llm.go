package ports

import "context"

// LLMClient is the single synchronous boundary to the external answer
// generator. It is the only pipeline operation expected to be slow or to
// fail transiently; callers wrap it with their own timeout or cancellation
// via ctx.
type LLMClient interface {
	ChatCompletion(ctx context.Context, systemPrompt, userContext string, temperature float64, maxTokens int) (string, error)
}
