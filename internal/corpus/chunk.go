package corpus

import "strings"

// Chunker cuts text into overlapping word windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker returns a chunker producing windows of size words that share overlap words.
// A non-positive size disables chunking.
func NewChunker(size, overlap int) *Chunker {
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk returns the windows of text. Empty text yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if c.size <= 0 || len(words) <= c.size {
		return []string{strings.Join(words, " ")}
	}
	step := c.size - c.overlap
	if step <= 0 {
		step = 1
	}
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
