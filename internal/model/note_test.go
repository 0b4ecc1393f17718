package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestNote_LegacyFilePath(t *testing.T) {
	var n Note
	assert.Nil(t, n.LegacyFilePath())

	n.Files = []string{"20250101_120000_a.pdf"}
	require.NotNil(t, n.LegacyFilePath())
	assert.Equal(t, "20250101_120000_a.pdf", *n.LegacyFilePath())

	n.Files = append(n.Files, "20250101_120001_b.mp4")
	assert.Equal(t, "20250101_120001_b.mp4", *n.LegacyFilePath())

	n.Files = n.Files[:0]
	assert.Nil(t, n.LegacyFilePath())
}

func TestNoteInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      NoteInput
		wantErr error
	}{
		{name: "minimal", in: NoteInput{Title: "T"}},
		{name: "empty content allowed", in: NoteInput{Title: "T", Content: ""}},
		{name: "with page", in: NoteInput{Title: "T", PageNumber: intPtr(5)}},
		{name: "empty title", in: NoteInput{Title: ""}, wantErr: ErrTitleRequired},
		{name: "title of 200 multibyte chars", in: NoteInput{Title: strings.Repeat("é", 200)}},
		{name: "title too long", in: NoteInput{Title: strings.Repeat("x", 201)}, wantErr: ErrTitleTooLong},
		{name: "zero page", in: NoteInput{Title: "T", PageNumber: intPtr(0)}, wantErr: ErrInvalidPageNumber},
		{name: "negative page", in: NoteInput{Title: "T", PageNumber: intPtr(-3)}, wantErr: ErrInvalidPageNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotePatch(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.True(t, NotePatch{}.IsEmpty())
		assert.False(t, NotePatch{Content: strPtr("")}.IsEmpty())
	})

	t.Run("validate only present fields", func(t *testing.T) {
		assert.NoError(t, NotePatch{Content: strPtr("")}.Validate())
		assert.ErrorIs(t, NotePatch{Title: strPtr("")}.Validate(), ErrTitleRequired)
		assert.ErrorIs(t, NotePatch{PageNumber: intPtr(0)}.Validate(), ErrInvalidPageNumber)
	})
}
