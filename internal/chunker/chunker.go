package chunker

import (
	"strings"

	"github.com/paperstack/paperindex/internal/tokenizer"
	"github.com/paperstack/paperindex/pkg/types"
)

// Default chunk sizing in tokens.
const (
	DefaultTargetTokens  = 400
	DefaultOverlapTokens = 50
	DefaultMinTokens     = 100
)

// Options controls chunk sizing.
type Options struct {
	TargetTokens  int // target maximum tokens per child chunk
	OverlapTokens int // max size of the paragraph carried over between chunks
	MinTokens     int // floor under which a trailing child is dropped
}

// DefaultOptions returns sensible defaults for academic prose.
func DefaultOptions() Options {
	return Options{
		TargetTokens:  DefaultTargetTokens,
		OverlapTokens: DefaultOverlapTokens,
		MinTokens:     DefaultMinTokens,
	}
}

// Chunker turns detected sections into hierarchical parent/child chunks.
type Chunker struct {
	counter tokenizer.Counter
	opts    Options
}

// New creates a Chunker using the given token counting strategy.
func New(counter tokenizer.Counter, opts Options) *Chunker {
	if opts.TargetTokens <= 0 {
		opts.TargetTokens = DefaultTargetTokens
	}
	if opts.OverlapTokens <= 0 {
		opts.OverlapTokens = DefaultOverlapTokens
	}
	if opts.MinTokens <= 0 {
		opts.MinTokens = DefaultMinTokens
	}
	return &Chunker{counter: counter, opts: opts}
}

// ChunkSection produces one parent chunk holding the full section content,
// followed by token-bounded child chunks built by greedily merging paragraphs.
// Consecutive children share their boundary paragraph when it fits the
// overlap budget. A trailing buffer below MinTokens is dropped: losing a few
// closing sentences was judged cheaper than emitting children too small to
// match anything.
func (c *Chunker) ChunkSection(section types.Section, paperID string) []types.Chunk {
	parent := types.Chunk{
		ID:            types.NewChunkID(section.Content, section.Kind, types.LevelParent, 0),
		PaperID:       paperID,
		Text:          section.Content,
		Kind:          section.Kind,
		Level:         types.LevelParent,
		SequenceOrder: 0,
		TokenCount:    c.counter.Count(section.Content),
	}

	chunks := []types.Chunk{parent}

	paragraphs := splitParagraphs(section.Content)
	if len(paragraphs) == 0 {
		return chunks
	}

	var buffer []string
	bufTokens := 0
	sequence := 1

	closeBuffer := func() {
		text := strings.Join(buffer, "\n\n")
		chunks = append(chunks, c.newChild(text, section.Kind, paperID, parent.ID, sequence))
		sequence++
	}

	for _, para := range paragraphs {
		paraTokens := c.counter.Count(para)

		if len(buffer) > 0 && bufTokens+paraTokens > c.opts.TargetTokens {
			closeBuffer()

			carry := buffer[len(buffer)-1]
			buffer = buffer[:0]
			bufTokens = 0
			if carryTokens := c.counter.Count(carry); carryTokens <= c.opts.OverlapTokens {
				buffer = append(buffer, carry)
				bufTokens = carryTokens
			}
		}

		buffer = append(buffer, para)
		bufTokens += paraTokens
	}

	if len(buffer) > 0 {
		text := strings.Join(buffer, "\n\n")
		if c.counter.Count(text) >= c.opts.MinTokens {
			closeBuffer()
		}
	}

	return chunks
}

func (c *Chunker) newChild(text string, kind types.SectionKind, paperID, parentID string, sequence int) types.Chunk {
	return types.Chunk{
		ID:            types.NewChunkID(text, kind, types.LevelChild, sequence),
		PaperID:       paperID,
		Text:          text,
		Kind:          kind,
		Level:         types.LevelChild,
		ParentID:      parentID,
		SequenceOrder: sequence,
		TokenCount:    c.counter.Count(text),
	}
}

// splitParagraphs splits text on blank-line boundaries, dropping empties.
func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
