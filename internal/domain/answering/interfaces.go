package answering

import (
	"context"

	"github.com/yanqian/complaint-intake/pkg/metrics"
)

// LLM generates an answer for a prompt.
type LLM interface {
	Chat(ctx context.Context, messages []LLMMessage) (Completion, error)
}

// LLMMessage mirrors a simplified chat payload.
type LLMMessage struct {
	Role    string
	Content string
}

// Completion is the model reply plus token accounting.
type Completion struct {
	Content string
	Usage   metrics.TokenUsage
}

// Embedder produces embeddings for free form text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits page text into pieces of at most maxTokens tokens.
type Chunker interface {
	Chunk(text string, maxTokens int) []ChunkCandidate
}

// ChunkCandidate is produced by the chunker before ranking.
type ChunkCandidate struct {
	Index      int
	Content    string
	TokenCount int
}
