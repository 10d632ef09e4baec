package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	domain "github.com/yanqian/complaint-intake/internal/domain/answering"
)

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// WordCounter approximates tokens by whitespace separated words.
type WordCounter struct{}

// Count returns the number of words in text.
func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TiktokenCounter counts tokens with a BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base".
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the encoded token length of text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// SimpleChunker splits text into roughly even sized segments.
type SimpleChunker struct {
	Overlap int
	counter TokenCounter
}

// NewSimpleChunker constructs a chunker. A nil counter falls back to word counting.
func NewSimpleChunker(counter TokenCounter, overlap int) *SimpleChunker {
	if counter == nil {
		counter = WordCounter{}
	}
	if overlap < 0 {
		overlap = 0
	}
	return &SimpleChunker{Overlap: overlap, counter: counter}
}

// Chunk splits by lines and then by token budget.
func (c *SimpleChunker) Chunk(text string, maxTokens int) []domain.ChunkCandidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = 800
	}
	overlap := c.Overlap
	if overlap >= maxTokens {
		overlap = maxTokens / 2
	}
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	var (
		current strings.Builder
		index   int
		out     []domain.ChunkCandidate
	)

	flush := func() {
		content := strings.TrimSpace(current.String())
		current.Reset()
		if content == "" {
			return
		}
		out = append(out, domain.ChunkCandidate{
			Index:      index,
			Content:    content,
			TokenCount: c.counter.Count(content),
		})
		index++
	}

	for _, part := range parts {
		for _, word := range strings.Fields(part) {
			if current.Len() > 0 && c.counter.Count(current.String()+word) > maxTokens {
				flush()
				if overlap > 0 && len(out) > 0 {
					current.WriteString(tailWords(out[len(out)-1].Content, overlap))
				}
			}
			current.WriteString(word)
			current.WriteString(" ")
		}
		current.WriteString("\n")
	}
	flush()
	return out
}

func tailWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text + " "
	}
	return strings.Join(words[len(words)-limit:], " ") + " "
}

var _ domain.Chunker = (*SimpleChunker)(nil)
