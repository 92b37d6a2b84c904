package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validParent() Chunk {
	text := "Full methodology section text."
	return Chunk{
		ID:            NewChunkID(text, SectionMethodology, LevelParent, 0),
		PaperID:       "p1",
		Text:          text,
		Kind:          SectionMethodology,
		Level:         LevelParent,
		SequenceOrder: 0,
	}
}

func validChild(parentID string) Chunk {
	text := "First paragraph of the methodology."
	return Chunk{
		ID:            NewChunkID(text, SectionMethodology, LevelChild, 1),
		PaperID:       "p1",
		Text:          text,
		Kind:          SectionMethodology,
		Level:         LevelChild,
		ParentID:      parentID,
		SequenceOrder: 1,
	}
}

func TestChunkValidate(t *testing.T) {
	parent := validParent()

	tests := []struct {
		name    string
		mutate  func(*Chunk)
		wantErr error
	}{
		{"valid parent", func(c *Chunk) { *c = validParent() }, nil},
		{"valid child", func(c *Chunk) { *c = validChild(parent.ID) }, nil},
		{"missing id", func(c *Chunk) { c.ID = "" }, ErrMissingChunkID},
		{"empty text", func(c *Chunk) { c.Text = "" }, ErrEmptyContent},
		{"bad kind", func(c *Chunk) { c.Kind = "marginalia" }, ErrInvalidSectionKind},
		{"parent with sequence", func(c *Chunk) { c.SequenceOrder = 2 }, ErrInvalidHierarchy},
		{"parent with parent id", func(c *Chunk) { c.ParentID = "x" }, ErrInvalidHierarchy},
		{"child sequence zero", func(c *Chunk) {
			*c = validChild(parent.ID)
			c.SequenceOrder = 0
		}, ErrInvalidHierarchy},
		{"child without parent", func(c *Chunk) {
			*c = validChild(parent.ID)
			c.ParentID = ""
		}, ErrInvalidHierarchy},
		{"unknown level", func(c *Chunk) { c.Level = 2 }, ErrInvalidHierarchy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validParent()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewChunkIDStable(t *testing.T) {
	a := NewChunkID("same text", SectionResults, LevelChild, 1)
	b := NewChunkID("same text", SectionResults, LevelChild, 1)
	assert.Equal(t, a, b)

	// Position participates in the ID, so identical text at a different
	// sequence stays distinct.
	c := NewChunkID("same text", SectionResults, LevelChild, 2)
	assert.NotEqual(t, a, c)
}
